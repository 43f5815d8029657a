// Package builtins derives the calling convention of entry points: which
// builtin resources a function takes, in what order, and at what code offset
// it starts.
//
// Two conventions exist. Contract entry points end their parameter list with
// (GasBuiltin, System), take only recognized builtins before that, and
// return a Result-shaped value; Derive validates all of it. Plain programs
// only have their builtins discovered by debug name (DeriveProgram).
package builtins

import (
	"github.com/hashicorp/go-set/v3"
	"github.com/iancoleman/strcase"

	"github.com/chazu/cairopack/sierra"
)

var recognized = set.From([]sierra.GenericTypeID{
	sierra.RangeCheckType,
	sierra.BitwiseType,
	sierra.PedersenType,
	sierra.EcOpType,
	sierra.PoseidonType,
	sierra.SegmentArenaType,
	sierra.GasBuiltinType,
	sierra.SystemType,
})

// IsRecognized reports whether g is a builtin type an entry point may take.
func IsRecognized(g sierra.GenericTypeID) bool {
	return recognized.Contains(g)
}

// Name returns the runner's name for a builtin type: "RangeCheck" becomes
// "range_check", "EcOp" becomes "ec_op".
func Name(g sierra.GenericTypeID) string {
	return strcase.ToSnake(string(g))
}
