package builtins

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/cairopack/sierra"
)

// ErrInvalidEntryPointSignature is matched by every *SignatureError.
var ErrInvalidEntryPointSignature = errors.New("invalid entry point signature")

// Reason identifies the calling-convention check a signature failed.
type Reason int

const (
	ReasonMissingImplicits Reason = iota + 1
	ReasonWrongImplicitOrder
	ReasonUnknownBuiltin
	ReasonNoReturnType
	ReasonBadReturnType
)

func (r Reason) String() string {
	switch r {
	case ReasonMissingImplicits:
		return "missing GasBuiltin/System parameters"
	case ReasonWrongImplicitOrder:
		return "wrong builtin order"
	case ReasonUnknownBuiltin:
		return "unknown builtin"
	case ReasonNoReturnType:
		return "no return type"
	case ReasonBadReturnType:
		return "invalid return type"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// SignatureError reports a calling-convention violation of one entry point.
type SignatureError struct {
	Function string
	Reason   Reason
	// Shape is set when Reason is ReasonBadReturnType.
	Shape  sierra.ReturnShape
	Detail string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s for %s: %s: %s", ErrInvalidEntryPointSignature, e.Function, e.Reason, e.Detail)
}

// Is makes errors.Is(err, ErrInvalidEntryPointSignature) hold.
func (e *SignatureError) Is(target error) bool {
	return target == ErrInvalidEntryPointSignature
}

// OffsetTable maps statement indices to code offsets.
type OffsetTable interface {
	CodeOffset(stmt int) (int, error)
}

// EntryPoint is the derived calling convention of one function.
type EntryPoint struct {
	Offset   int
	Builtins []string
}

// Deriver derives entry points against one program's type table and the
// compiler's statement offsets. It holds no mutable state.
type Deriver struct {
	Resolver *sierra.TypeResolver
	Offsets  OffsetTable
	// Permissive skips leading parameters that are not recognized builtins
	// instead of rejecting the signature.
	Permissive bool
}

// Derive validates fn against the contract entry-point convention and
// returns its offset and builtin list in declaration order.
func (d *Deriver) Derive(fn *sierra.Function) (EntryPoint, error) {
	name := fn.ID.String()
	sig := fn.Signature
	if err := d.Resolver.CheckIDs(sig.ParamTypes...); err != nil {
		return EntryPoint{}, fmt.Errorf("builtins: %s params: %w", name, err)
	}
	if err := d.Resolver.CheckIDs(sig.RetTypes...); err != nil {
		return EntryPoint{}, fmt.Errorf("builtins: %s returns: %w", name, err)
	}

	params := sig.ParamTypes
	if len(params) < 2 {
		return EntryPoint{}, &SignatureError{
			Function: name,
			Reason:   ReasonMissingImplicits,
			Detail:   fmt.Sprintf("expected GasBuiltin and System as last parameters, got %d parameters", len(params)),
		}
	}
	leading, implicits := params[:len(params)-2], params[len(params)-2:]
	gas, sys := d.Resolver.GenericID(implicits[0]), d.Resolver.GenericID(implicits[1])
	if gas == sierra.SystemType && sys == sierra.GasBuiltinType {
		return EntryPoint{}, &SignatureError{
			Function: name,
			Reason:   ReasonWrongImplicitOrder,
			Detail:   "GasBuiltin must come before System",
		}
	}
	if gas != sierra.GasBuiltinType || sys != sierra.SystemType {
		return EntryPoint{}, &SignatureError{
			Function: name,
			Reason:   ReasonMissingImplicits,
			Detail:   fmt.Sprintf("last parameters are (%s, %s), want (GasBuiltin, System)", gas, sys),
		}
	}

	names := make([]string, 0, len(leading))
	for i := len(leading) - 1; i >= 0; i-- {
		g := d.Resolver.GenericID(leading[i])
		if !IsRecognized(g) {
			if d.Permissive {
				continue
			}
			return EntryPoint{}, &SignatureError{
				Function: name,
				Reason:   ReasonUnknownBuiltin,
				Detail:   fmt.Sprintf("parameter %d has type %s", i, g),
			}
		}
		if g == sierra.GasBuiltinType || g == sierra.SystemType {
			continue
		}
		names = append(names, Name(g))
	}
	slices.Reverse(names)

	if len(sig.RetTypes) == 0 {
		return EntryPoint{}, &SignatureError{
			Function: name,
			Reason:   ReasonNoReturnType,
			Detail:   "entry points must return a Result",
		}
	}
	ret := sig.RetTypes[len(sig.RetTypes)-1]
	if shape := d.Resolver.ReturnTypeIssue(ret); shape != sierra.ReturnValid {
		return EntryPoint{}, &SignatureError{
			Function: name,
			Reason:   ReasonBadReturnType,
			Shape:    shape,
			Detail:   shape.String(),
		}
	}

	offset, err := d.Offsets.CodeOffset(fn.EntryPoint)
	if err != nil {
		return EntryPoint{}, fmt.Errorf("builtins: %s: %w", name, err)
	}
	return EntryPoint{Offset: offset, Builtins: names}, nil
}
