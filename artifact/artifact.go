// Package artifact assembles the final executable artifact: it runs the
// external compiler, flattens and reduces the bytecode, derives the entry
// point calling convention, projects hints and computes the segmentation
// map. Plain programs and contract classes produce distinct record types.
package artifact

import (
	"github.com/chazu/cairopack/felt"
	"github.com/chazu/cairopack/hints"
	"github.com/chazu/cairopack/segment"
)

// Code is the part of an artifact shared by both conventions.
type Code struct {
	Prime           felt.BigUint `json:"prime" cbor:"1,keyasint"`
	CompilerVersion string       `json:"compiler_version" cbor:"2,keyasint"`
	Bytecode        []felt.Felt  `json:"bytecode" cbor:"3,keyasint"`
	// BytecodeSegmentLengths is nil when segmentation was unavailable.
	BytecodeSegmentLengths *segment.NestedIntList `json:"bytecode_segment_lengths,omitempty" cbor:"4,keyasint,omitempty"`
	Hints                  []hints.PCHints        `json:"hints" cbor:"5,keyasint"`
	PythonicHints          []hints.PythonicHints  `json:"pythonic_hints,omitempty" cbor:"6,keyasint,omitempty"`
}

// EntryPoint is the calling convention of a plain program's main function.
type EntryPoint struct {
	Offset   int      `json:"offset" cbor:"1,keyasint"`
	Builtins []string `json:"builtins" cbor:"2,keyasint"`
}

// ProgramArtifact is the output for a plain single-entry program.
type ProgramArtifact struct {
	Code
	MainEntry EntryPoint `json:"main_entry" cbor:"7,keyasint"`
}

// ContractEntryPoint is one externally callable entry of a contract class.
type ContractEntryPoint struct {
	Selector felt.Felt `json:"selector" cbor:"1,keyasint"`
	Offset   int       `json:"offset" cbor:"2,keyasint"`
	Builtins []string  `json:"builtins" cbor:"3,keyasint"`
}

// EntryPointsByType groups contract entry points by kind.
type EntryPointsByType struct {
	External    []ContractEntryPoint `json:"EXTERNAL" cbor:"1,keyasint"`
	L1Handler   []ContractEntryPoint `json:"L1_HANDLER" cbor:"2,keyasint"`
	Constructor []ContractEntryPoint `json:"CONSTRUCTOR" cbor:"3,keyasint"`
}

// Len returns the number of entry points of every kind.
func (e *EntryPointsByType) Len() int {
	return len(e.External) + len(e.L1Handler) + len(e.Constructor)
}

// ContractArtifact is the output for a multi-entry contract class.
type ContractArtifact struct {
	Code
	EntryPointsByType EntryPointsByType `json:"entry_points_by_type" cbor:"8,keyasint"`
}
