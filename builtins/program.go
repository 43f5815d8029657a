package builtins

import (
	"fmt"
	"slices"

	"github.com/chazu/cairopack/sierra"
)

// FirstBuiltinOffset is the stack offset assigned to the first discovered
// builtin of a plain program.
const FirstBuiltinOffset = 3

// programScanOrder is the order builtins are looked for, and therefore the
// order offsets are assigned in.
var programScanOrder = []sierra.GenericTypeID{
	sierra.PoseidonType,
	sierra.EcOpType,
	sierra.BitwiseType,
	sierra.RangeCheckType,
	sierra.PedersenType,
}

// ProgramBuiltins is the builtin layout of a plain program's main function.
type ProgramBuiltins struct {
	// Names is the runner's builtin list: the scan order reversed.
	Names []string
	// Offsets maps each discovered builtin type to its stack offset.
	Offsets map[sierra.GenericTypeID]int
}

// DiscoverProgramBuiltins finds builtins among params by debug name. No
// ordering or suffix is enforced.
func DiscoverProgramBuiltins(r *sierra.TypeResolver, params []sierra.ConcreteTypeID) ProgramBuiltins {
	present := make(map[string]bool, len(params))
	for _, p := range params {
		present[r.DebugName(p)] = true
	}

	out := ProgramBuiltins{Offsets: make(map[sierra.GenericTypeID]int)}
	offset := FirstBuiltinOffset
	for _, g := range programScanOrder {
		if !present[string(g)] {
			continue
		}
		out.Names = append(out.Names, Name(g))
		out.Offsets[g] = offset
		offset++
	}
	slices.Reverse(out.Names)
	return out
}

// DeriveProgram returns the entry point of a plain program's main function.
func (d *Deriver) DeriveProgram(fn *sierra.Function) (EntryPoint, error) {
	if err := d.Resolver.CheckIDs(fn.Signature.ParamTypes...); err != nil {
		return EntryPoint{}, fmt.Errorf("builtins: %s params: %w", fn.ID, err)
	}
	if err := d.Resolver.CheckIDs(fn.Signature.RetTypes...); err != nil {
		return EntryPoint{}, fmt.Errorf("builtins: %s returns: %w", fn.ID, err)
	}
	pb := DiscoverProgramBuiltins(d.Resolver, fn.Signature.ParamTypes)
	offset, err := d.Offsets.CodeOffset(fn.EntryPoint)
	if err != nil {
		return EntryPoint{}, fmt.Errorf("builtins: %s: %w", fn.ID, err)
	}
	names := pb.Names
	if names == nil {
		names = []string{}
	}
	return EntryPoint{Offset: offset, Builtins: names}, nil
}
