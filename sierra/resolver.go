package sierra

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a type id has no row in the table.
var ErrUnknownType = errors.New("unknown type id")

// TypeResolver answers structural questions about a type table. It never
// mutates the table and may be shared between goroutines.
//
// Construction validates that the table is dense and that every Type
// argument points at an existing row, so the lookups and predicates below
// only panic when handed an id that did not come from this program; use
// CheckIDs on ids obtained elsewhere.
type TypeResolver struct {
	decls []TypeDeclaration
}

// NewTypeResolver validates decls and returns a resolver over it.
func NewTypeResolver(decls []TypeDeclaration) (*TypeResolver, error) {
	for i, d := range decls {
		if d.ID.ID != uint64(i) {
			return nil, fmt.Errorf("sierra: type table not dense: row %d has id %d", i, d.ID.ID)
		}
	}
	r := &TypeResolver{decls: decls}
	for _, d := range decls {
		for _, arg := range d.LongID.GenericArgs {
			if ta, ok := arg.(TypeArg); ok && !r.Has(ta.Type) {
				return nil, fmt.Errorf("sierra: %w: %d referenced by %s", ErrUnknownType, ta.Type.ID, d.ID)
			}
		}
	}
	return r, nil
}

// Has reports whether ty names a row of the table.
func (r *TypeResolver) Has(ty ConcreteTypeID) bool {
	return ty.ID < uint64(len(r.decls))
}

// CheckIDs returns ErrUnknownType for the first id not in the table.
func (r *TypeResolver) CheckIDs(ids ...ConcreteTypeID) error {
	for _, id := range ids {
		if !r.Has(id) {
			return fmt.Errorf("sierra: %w: %s (table has %d rows)", ErrUnknownType, id, len(r.decls))
		}
	}
	return nil
}

// LongID returns the declaration of ty.
func (r *TypeResolver) LongID(ty ConcreteTypeID) ConcreteTypeLongID {
	return r.decls[ty.ID].LongID
}

// GenericID returns the generic constructor of ty.
func (r *TypeResolver) GenericID(ty ConcreteTypeID) GenericTypeID {
	return r.LongID(ty).GenericID
}

// DebugName returns the debug name carried by ty, falling back to the name
// recorded in the table.
func (r *TypeResolver) DebugName(ty ConcreteTypeID) string {
	if ty.DebugName != "" {
		return ty.DebugName
	}
	if r.Has(ty) {
		return r.decls[ty.ID].ID.DebugName
	}
	return ""
}

// singleTypeArg matches generic args of the form [Type(t)].
func singleTypeArg(args GenericArgs) (ConcreteTypeID, bool) {
	if len(args) != 1 {
		return ConcreteTypeID{}, false
	}
	ta, ok := args[0].(TypeArg)
	return ta.Type, ok
}

// userTypeArgs matches [UserType, Type(t0), ..., Type(tn-1)].
func userTypeArgs(args GenericArgs, n int) ([]ConcreteTypeID, bool) {
	if len(args) != n+1 {
		return nil, false
	}
	if _, ok := args[0].(UserTypeArg); !ok {
		return nil, false
	}
	out := make([]ConcreteTypeID, n)
	for i, arg := range args[1:] {
		ta, ok := arg.(TypeArg)
		if !ok {
			return nil, false
		}
		out[i] = ta.Type
	}
	return out, true
}

// IsFelt252Array reports whether ty is Array<felt252>.
func (r *TypeResolver) IsFelt252Array(ty ConcreteTypeID) bool {
	long := r.LongID(ty)
	if long.GenericID != ArrayType {
		return false
	}
	elem, ok := singleTypeArg(long.GenericArgs)
	if !ok {
		return false
	}
	return r.GenericID(elem) == Felt252Type
}

// IsFelt252ArraySnapshot reports whether ty is @Array<felt252>.
func (r *TypeResolver) IsFelt252ArraySnapshot(ty ConcreteTypeID) bool {
	long := r.LongID(ty)
	if long.GenericID != SnapshotType {
		return false
	}
	inner, ok := singleTypeArg(long.GenericArgs)
	if !ok {
		return false
	}
	return r.IsFelt252Array(inner)
}

// IsFelt252Span reports whether ty is Span<felt252>, a one-field struct
// wrapping @Array<felt252>.
func (r *TypeResolver) IsFelt252Span(ty ConcreteTypeID) bool {
	inner, ok := r.ExtractStruct1(ty)
	if !ok {
		return false
	}
	return r.IsFelt252ArraySnapshot(inner)
}

// ExtractResultTy returns (ok, err) when ty is a two-variant enum.
func (r *TypeResolver) ExtractResultTy(ty ConcreteTypeID) (ConcreteTypeID, ConcreteTypeID, bool) {
	long := r.LongID(ty)
	if long.GenericID != EnumType {
		return ConcreteTypeID{}, ConcreteTypeID{}, false
	}
	variants, ok := userTypeArgs(long.GenericArgs, 2)
	if !ok {
		return ConcreteTypeID{}, ConcreteTypeID{}, false
	}
	return variants[0], variants[1], true
}

// ExtractStruct1 returns T when ty is the one-field struct (T,).
func (r *TypeResolver) ExtractStruct1(ty ConcreteTypeID) (ConcreteTypeID, bool) {
	long := r.LongID(ty)
	if long.GenericID != StructType {
		return ConcreteTypeID{}, false
	}
	fields, ok := userTypeArgs(long.GenericArgs, 1)
	if !ok {
		return ConcreteTypeID{}, false
	}
	return fields[0], true
}

// ExtractStruct2 returns (T0, T1) when ty is the two-field struct (T0, T1).
func (r *TypeResolver) ExtractStruct2(ty ConcreteTypeID) (ConcreteTypeID, ConcreteTypeID, bool) {
	long := r.LongID(ty)
	if long.GenericID != StructType {
		return ConcreteTypeID{}, ConcreteTypeID{}, false
	}
	fields, ok := userTypeArgs(long.GenericArgs, 2)
	if !ok {
		return ConcreteTypeID{}, ConcreteTypeID{}, false
	}
	return fields[0], fields[1], true
}

// ReturnShape classifies an entry-point return type.
type ReturnShape int

const (
	ReturnValid ReturnShape = iota
	ReturnNotResult
	ReturnOkNotTuple
	ReturnOkNotSpan
	ReturnErrNotPanicData
	ReturnErrDataNotSpan
)

func (s ReturnShape) String() string {
	switch s {
	case ReturnValid:
		return "valid"
	case ReturnNotResult:
		return "return type is not a Result"
	case ReturnOkNotTuple:
		return "ok variant is not a one-field tuple"
	case ReturnOkNotSpan:
		return "ok variant does not wrap Span<felt252>"
	case ReturnErrNotPanicData:
		return "err variant is neither Array<felt252> nor a (panic, data) pair"
	case ReturnErrDataNotSpan:
		return "err variant data is not Span<felt252>"
	default:
		return fmt.Sprintf("ReturnShape(%d)", int(s))
	}
}

// ReturnTypeIssue reports which part of the entry-point return convention
// ty violates, or ReturnValid.
//
// The accepted shape is Result<(Span<felt252>,), E> where E is either
// Array<felt252> (legacy panics) or (panic, Span<felt252>).
func (r *TypeResolver) ReturnTypeIssue(ty ConcreteTypeID) ReturnShape {
	okTy, errTy, ok := r.ExtractResultTy(ty)
	if !ok {
		return ReturnNotResult
	}
	okInner, ok := r.ExtractStruct1(okTy)
	if !ok {
		return ReturnOkNotTuple
	}
	if !r.IsFelt252Span(okInner) {
		return ReturnOkNotSpan
	}
	if r.IsFelt252Array(errTy) {
		return ReturnValid
	}
	_, data, ok := r.ExtractStruct2(errTy)
	if !ok {
		return ReturnErrNotPanicData
	}
	if !r.IsFelt252Span(data) {
		return ReturnErrDataNotSpan
	}
	return ReturnValid
}

// IsValidEntryPointReturnType reports whether ty follows the entry-point
// return convention.
func (r *TypeResolver) IsValidEntryPointReturnType(ty ConcreteTypeID) bool {
	return r.ReturnTypeIssue(ty) == ReturnValid
}
