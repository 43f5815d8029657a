package casm

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrMissingStatementOffset is returned when debug info has no code
	// offset for a statement index.
	ErrMissingStatementOffset = errors.New("missing statement offset")

	// ErrBytecodeTooLarge is returned when compiled code exceeds the
	// configured maximum.
	ErrBytecodeTooLarge = errors.New("bytecode too large")

	// ErrSizeMismatch is returned when an instruction body disagrees with
	// its declared size.
	ErrSizeMismatch = errors.New("instruction size mismatch")
)

// Instruction is one compiled instruction. Body holds the assembled words
// before field reduction; OpSize is the number of words it occupies.
type Instruction struct {
	Body   []*big.Int `json:"body"`
	OpSize int        `json:"op_size"`
	Hints  []Hint     `json:"hints,omitempty"`
}

// DebugInfo carries the compiler's statement-level metadata.
type DebugInfo struct {
	// StatementOffsets[i] is the code offset of statement i.
	StatementOffsets []int `json:"statement_offsets"`
	// SegmentStarts lists statements that open a nested bytecode segment
	// (arena-tracked blocks) inside their function.
	SegmentStarts []int `json:"segment_starts,omitempty"`
}

// CodeOffset returns the code offset of statement stmt.
func (d *DebugInfo) CodeOffset(stmt int) (int, error) {
	if stmt < 0 || stmt >= len(d.StatementOffsets) {
		return 0, fmt.Errorf("casm: %w: statement %d (have %d)", ErrMissingStatementOffset, stmt, len(d.StatementOffsets))
	}
	return d.StatementOffsets[stmt], nil
}

// CompiledProgram is the external compiler's output.
type CompiledProgram struct {
	Instructions []Instruction `json:"instructions"`
	DebugInfo    DebugInfo     `json:"debug_info"`
}

// BytecodeSize returns the total number of words the instructions occupy.
func (c *CompiledProgram) BytecodeSize() int {
	n := 0
	for _, inst := range c.Instructions {
		n += inst.OpSize
	}
	return n
}
