package casm

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/cairopack/sierra"
)

// UnknownVersion is reported when a bundle does not name its compiler.
const UnknownVersion = "unknown"

// Bundle is the on-disk dump of one external compiler run: the program it
// was given, the contract entry points if the program is a contract, and
// the compiled output.
type Bundle struct {
	CompilerVersion string                      `json:"compiler_version"`
	Program         sierra.Program              `json:"program"`
	EntryPoints     *sierra.ContractEntryPoints `json:"entry_points_by_type,omitempty"`
	Compiled        CompiledProgram             `json:"compiled"`
}

// DecodeBundle parses a bundle from JSON.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("casm: decode bundle: %w", err)
	}
	return &b, nil
}

// LoadBundle reads and parses a bundle file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("casm: cannot read %s: %w", path, err)
	}
	b, err := DecodeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// IsContract reports whether the bundle declares contract entry points.
func (b *Bundle) IsContract() bool {
	return b.EntryPoints != nil
}

// Compiler returns a Compiler that replays the bundle's output.
func (b *Bundle) Compiler() *Precompiled {
	return &Precompiled{Output: &b.Compiled, CompilerVersion: b.CompilerVersion}
}

// Precompiled is a Compiler backed by output produced earlier. It still
// enforces the configured bytecode size limit.
type Precompiled struct {
	Output          *CompiledProgram
	CompilerVersion string
}

// Compile implements Compiler.
func (p *Precompiled) Compile(_ *sierra.Program, cfg Config) (*CompiledProgram, error) {
	if p.Output == nil {
		return nil, fmt.Errorf("casm: precompiled output is empty")
	}
	if cfg.MaxBytecodeSize > 0 {
		if size := p.Output.BytecodeSize(); size > cfg.MaxBytecodeSize {
			return nil, fmt.Errorf("casm: %w: %d words, limit %d", ErrBytecodeTooLarge, size, cfg.MaxBytecodeSize)
		}
	}
	return p.Output, nil
}

// Version implements Compiler.
func (p *Precompiled) Version() string {
	if p.CompilerVersion == "" {
		return UnknownVersion
	}
	return p.CompilerVersion
}
