package sierra

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/cairopack/felt"
)

var (
	// ErrFunctionNotFound is returned when no function matches a lookup.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrAmbiguousFunction is returned when a suffix matches more than one function.
	ErrAmbiguousFunction = errors.New("ambiguous function")
)

// ConcreteTypeLongID is the resolved form of a type: a generic constructor
// applied to arguments.
type ConcreteTypeLongID struct {
	GenericID   GenericTypeID `json:"generic_id"`
	GenericArgs GenericArgs   `json:"generic_args"`
}

// TypeDeclaration is one row of the type table.
type TypeDeclaration struct {
	ID     ConcreteTypeID     `json:"id"`
	LongID ConcreteTypeLongID `json:"long_id"`
}

// FunctionSignature lists parameter and return types of a function.
type FunctionSignature struct {
	ParamTypes []ConcreteTypeID `json:"param_types"`
	RetTypes   []ConcreteTypeID `json:"ret_types"`
}

// Function is a user function of the program.
type Function struct {
	ID        FunctionID        `json:"id"`
	Signature FunctionSignature `json:"signature"`
	// EntryPoint is the index of the function's first statement.
	EntryPoint int `json:"entry_point"`
}

// Program is the subset of a compiled intermediate program read while
// packaging. It is never mutated after decoding.
type Program struct {
	TypeDeclarations []TypeDeclaration `json:"type_declarations"`
	Funcs            []Function        `json:"funcs"`
}

// DecodeProgram parses the JSON form of a program.
func DecodeProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("sierra: decode program: %w", err)
	}
	return &p, nil
}

// FindFunction returns the unique function whose debug name ends with suffix.
func (p *Program) FindFunction(suffix string) (*Function, error) {
	var found *Function
	for i := range p.Funcs {
		f := &p.Funcs[i]
		if !strings.HasSuffix(f.ID.DebugName, suffix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("sierra: %w: %q matches %s and %s", ErrAmbiguousFunction, suffix, found.ID, f.ID)
		}
		found = f
	}
	if found == nil {
		return nil, fmt.Errorf("sierra: %w: %q", ErrFunctionNotFound, suffix)
	}
	return found, nil
}

// FunctionAt returns the function at position idx of Funcs.
func (p *Program) FunctionAt(idx int) (*Function, error) {
	if idx < 0 || idx >= len(p.Funcs) {
		return nil, fmt.Errorf("sierra: %w: index %d of %d", ErrFunctionNotFound, idx, len(p.Funcs))
	}
	return &p.Funcs[idx], nil
}

// EntryPointDecl binds an external selector to a function of the program.
type EntryPointDecl struct {
	Selector    felt.Felt `json:"selector"`
	FunctionIdx int       `json:"function_idx"`
}

// ContractEntryPoints groups a contract's entry points by kind.
type ContractEntryPoints struct {
	External    []EntryPointDecl `json:"EXTERNAL"`
	L1Handler   []EntryPointDecl `json:"L1_HANDLER"`
	Constructor []EntryPointDecl `json:"CONSTRUCTOR"`
}

// Len returns the total number of declared entry points.
func (c *ContractEntryPoints) Len() int {
	return len(c.External) + len(c.L1Handler) + len(c.Constructor)
}
