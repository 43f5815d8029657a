// Package hints rewrites the hints embedded in compiled instructions into a
// table keyed by program counter, and renders them as Python-style text for
// runners and debugging tools that execute hints as scripts.
package hints

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/cairopack/casm"
)

// PCHints holds the hints attached at one pc. It encodes as the pair
// [pc, hints] in both JSON and CBOR.
type PCHints struct {
	_     struct{} `cbor:",toarray"`
	PC    int
	Hints []casm.Hint
}

// MarshalJSON encodes the pair form.
func (p PCHints) MarshalJSON() ([]byte, error) {
	hs := p.Hints
	if hs == nil {
		hs = []casm.Hint{}
	}
	return json.Marshal([]any{p.PC, hs})
}

// UnmarshalJSON decodes the pair form.
func (p *PCHints) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("hints: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("hints: expected [pc, hints], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.PC); err != nil {
		return fmt.Errorf("hints: pc: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Hints); err != nil {
		return fmt.Errorf("hints: pc %d: %w", p.PC, err)
	}
	return nil
}

// Project walks instructions from pc 0, advancing by each op_size, and
// records the hints present at each pc. Instructions without hints produce
// no entry, so the result is sparse and sorted by pc.
func Project(instructions []casm.Instruction) []PCHints {
	var out []PCHints
	pc := 0
	for _, inst := range instructions {
		if len(inst.Hints) > 0 {
			out = append(out, PCHints{
				PC:    pc,
				Hints: append([]casm.Hint(nil), inst.Hints...),
			})
		}
		pc += inst.OpSize
	}
	return out
}
