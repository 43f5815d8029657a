// Package casm describes what the external intermediate-to-bytecode compiler
// hands to the packaging step: the instruction list with embedded hints,
// per-statement code offsets, and the contracts (Compiler, Assembler) used to
// obtain them.
package casm

import (
	"fmt"
	"math/big"
	"strings"
)

// Register is an address register of the target machine.
type Register string

const (
	AP Register = "AP"
	FP Register = "FP"
)

// CellRef addresses a memory cell relative to a register.
type CellRef struct {
	Register Register `json:"register" cbor:"1,keyasint"`
	Offset   int16    `json:"offset" cbor:"2,keyasint"`
}

// String renders the cell as "[ap + 1]" or "[fp + -3]".
func (c CellRef) String() string {
	return fmt.Sprintf("[%s + %d]", strings.ToLower(string(c.Register)), c.Offset)
}

// Operation is the operator of a BinOp operand.
type Operation string

const (
	OpAdd Operation = "Add"
	OpMul Operation = "Mul"
)

// Symbol returns the infix operator.
func (o Operation) Symbol() string {
	if o == OpMul {
		return "*"
	}
	return "+"
}

// DerefOrImmediate is either a cell or a constant.
type DerefOrImmediate struct {
	Deref     *CellRef `json:"Deref,omitempty" cbor:"1,keyasint,omitempty"`
	Immediate *big.Int `json:"Immediate,omitempty" cbor:"2,keyasint,omitempty"`
}

// DoubleDeref reads memory[memory[cell] + offset].
type DoubleDeref struct {
	Cell   CellRef `json:"cell" cbor:"1,keyasint"`
	Offset int16   `json:"offset" cbor:"2,keyasint"`
}

// BinOp is a cell combined with a cell or constant.
type BinOp struct {
	Op Operation        `json:"op" cbor:"1,keyasint"`
	A  CellRef          `json:"a" cbor:"2,keyasint"`
	B  DerefOrImmediate `json:"b" cbor:"3,keyasint"`
}

// ResOperand is a hint operand. Exactly one field is set.
type ResOperand struct {
	Deref       *CellRef     `json:"Deref,omitempty" cbor:"1,keyasint,omitempty"`
	DoubleDeref *DoubleDeref `json:"DoubleDeref,omitempty" cbor:"2,keyasint,omitempty"`
	Immediate   *big.Int     `json:"Immediate,omitempty" cbor:"3,keyasint,omitempty"`
	BinOp       *BinOp       `json:"BinOp,omitempty" cbor:"4,keyasint,omitempty"`
}

// HintKind names a hint variant.
type HintKind string

const (
	HintAllocSegment        HintKind = "AllocSegment"
	HintTestLessThan        HintKind = "TestLessThan"
	HintTestLessThanOrEqual HintKind = "TestLessThanOrEqual"
	HintDivMod              HintKind = "DivMod"
	HintSquareRoot          HintKind = "SquareRoot"
	HintLinearSplit         HintKind = "LinearSplit"
	HintAllocConstantSize   HintKind = "AllocConstantSize"
	HintSystemCall          HintKind = "SystemCall"
	HintDebugPrint          HintKind = "DebugPrint"
)

// Hint is an instruction annotation executed by the runner before the
// instruction it is attached to. Which operand fields are populated depends
// on Kind.
type Hint struct {
	Kind HintKind `json:"kind" cbor:"1,keyasint"`

	Dst       *CellRef `json:"dst,omitempty" cbor:"2,keyasint,omitempty"`
	Quotient  *CellRef `json:"quotient,omitempty" cbor:"3,keyasint,omitempty"`
	Remainder *CellRef `json:"remainder,omitempty" cbor:"4,keyasint,omitempty"`
	X         *CellRef `json:"x,omitempty" cbor:"5,keyasint,omitempty"`
	Y         *CellRef `json:"y,omitempty" cbor:"6,keyasint,omitempty"`

	Lhs    *ResOperand `json:"lhs,omitempty" cbor:"7,keyasint,omitempty"`
	Rhs    *ResOperand `json:"rhs,omitempty" cbor:"8,keyasint,omitempty"`
	Value  *ResOperand `json:"value,omitempty" cbor:"9,keyasint,omitempty"`
	Scalar *ResOperand `json:"scalar,omitempty" cbor:"10,keyasint,omitempty"`
	MaxX   *ResOperand `json:"max_x,omitempty" cbor:"11,keyasint,omitempty"`
	Size   *ResOperand `json:"size,omitempty" cbor:"12,keyasint,omitempty"`
	System *ResOperand `json:"system,omitempty" cbor:"13,keyasint,omitempty"`
	Start  *ResOperand `json:"start,omitempty" cbor:"14,keyasint,omitempty"`
	End    *ResOperand `json:"end,omitempty" cbor:"15,keyasint,omitempty"`
}
