// Package sierra models the parts of a compiled intermediate program that the
// packaging step reads: the numbered type-declaration table, function
// signatures and contract entry-point declarations. It also provides
// TypeResolver, which recovers structural facts (felt spans, Result-shaped
// enums, builtin types) from the opaque table.
package sierra

import (
	"fmt"

	"github.com/chazu/cairopack/felt"
)

// GenericTypeID names a generic type constructor, e.g. "Array" or "RangeCheck".
type GenericTypeID string

// Generic type constructors the packaging step recognizes.
const (
	Felt252Type      GenericTypeID = "felt252"
	ArrayType        GenericTypeID = "Array"
	SnapshotType     GenericTypeID = "Snapshot"
	StructType       GenericTypeID = "Struct"
	EnumType         GenericTypeID = "Enum"
	RangeCheckType   GenericTypeID = "RangeCheck"
	BitwiseType      GenericTypeID = "Bitwise"
	PedersenType     GenericTypeID = "Pedersen"
	EcOpType         GenericTypeID = "EcOp"
	PoseidonType     GenericTypeID = "Poseidon"
	SegmentArenaType GenericTypeID = "SegmentArena"
	GasBuiltinType   GenericTypeID = "GasBuiltin"
	SystemType       GenericTypeID = "System"
)

// ConcreteTypeID is a dense handle into the type-declaration table.
type ConcreteTypeID struct {
	ID        uint64 `json:"id" cbor:"1,keyasint"`
	DebugName string `json:"debug_name,omitempty" cbor:"2,keyasint,omitempty"`
}

func (c ConcreteTypeID) String() string {
	if c.DebugName != "" {
		return c.DebugName
	}
	return fmt.Sprintf("[%d]", c.ID)
}

// UserTypeID is the opaque identity of a user-declared struct or enum.
type UserTypeID struct {
	ID        felt.Felt `json:"id" cbor:"1,keyasint"`
	DebugName string    `json:"debug_name,omitempty" cbor:"2,keyasint,omitempty"`
}

// FunctionID identifies a function of the program.
type FunctionID struct {
	ID        uint64 `json:"id" cbor:"1,keyasint"`
	DebugName string `json:"debug_name,omitempty" cbor:"2,keyasint,omitempty"`
}

func (f FunctionID) String() string {
	if f.DebugName != "" {
		return f.DebugName
	}
	return fmt.Sprintf("[%d]", f.ID)
}
