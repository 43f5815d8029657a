package casm

import (
	"fmt"
	"math/big"

	"github.com/chazu/cairopack/sierra"
)

// Config is the metadata record passed to the external compiler.
type Config struct {
	GasUsageCheck bool
	// MaxBytecodeSize bounds the compiled size in words; 0 means unlimited.
	MaxBytecodeSize int
}

// Compiler lowers a program to instructions. Implementations wrap the
// external compiler; their errors are propagated unchanged.
type Compiler interface {
	Compile(p *sierra.Program, cfg Config) (*CompiledProgram, error)
	Version() string
}

// Assembled is the flattened form of an instruction list.
type Assembled struct {
	// Bytecode holds signed words, not yet reduced into the field.
	Bytecode []*big.Int
	// Offsets[i] is the pc of instruction i.
	Offsets []int
}

// Assembler flattens instructions into bytecode words.
type Assembler interface {
	Assemble(instructions []Instruction) (*Assembled, error)
}

// FlatAssembler concatenates each instruction's encoded body.
type FlatAssembler struct{}

// Assemble implements Assembler.
func (FlatAssembler) Assemble(instructions []Instruction) (*Assembled, error) {
	out := &Assembled{
		Bytecode: make([]*big.Int, 0, len(instructions)*2),
		Offsets:  make([]int, 0, len(instructions)),
	}
	for i, inst := range instructions {
		if len(inst.Body) != inst.OpSize {
			return nil, fmt.Errorf("casm: %w: instruction %d has %d words, op_size %d", ErrSizeMismatch, i, len(inst.Body), inst.OpSize)
		}
		out.Offsets = append(out.Offsets, len(out.Bytecode))
		for j, w := range inst.Body {
			if w == nil {
				return nil, fmt.Errorf("casm: instruction %d word %d is missing", i, j)
			}
			out.Bytecode = append(out.Bytecode, w)
		}
	}
	return out, nil
}
