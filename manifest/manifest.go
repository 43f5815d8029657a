// Package manifest handles cairopack.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "cairopack.toml"

// Manifest represents a cairopack.toml project configuration.
type Manifest struct {
	Project Project `toml:"project" json:"project"`
	Compile Compile `toml:"compile" json:"compile"`
	Cache   Cache   `toml:"cache" json:"cache"`

	// Dir is the directory containing the cairopack.toml file (set at load time).
	Dir string `toml:"-" json:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name" json:"name"`
	Version string `toml:"version" json:"version,omitempty"`
}

// Compile configures artifact builds.
type Compile struct {
	// Input is the compiler bundle built when the CLI gets no arguments.
	Input  string `toml:"input" json:"input,omitempty"`
	Output string `toml:"output" json:"output,omitempty"`
	Entry  string `toml:"entry" json:"entry"`
	// Convention is "program", "contract" or "auto".
	Convention        string `toml:"convention" json:"convention"`
	Format            string `toml:"format" json:"format"`
	GasUsageCheck     bool   `toml:"gas-usage-check" json:"gas-usage-check"`
	MaxBytecodeSize   int    `toml:"max-bytecode-size" json:"max-bytecode-size"`
	EnforceBuiltinSet *bool  `toml:"enforce-builtin-set" json:"enforce-builtin-set"`
	PythonicHints     bool   `toml:"pythonic-hints" json:"pythonic-hints"`
}

// Cache configures the artifact cache.
type Cache struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path,omitempty"`
}

// Defaults
const (
	DefaultEntry      = "::main"
	DefaultConvention = "auto"
	DefaultFormat     = "json"
	DefaultCachePath  = ".cairopack/cache.db"
)

// Load parses a cairopack.toml file from the given directory, applies
// defaults and validates the result against the schema.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text, applies defaults and validates it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	m.applyDefaults()
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Compile.Entry == "" {
		m.Compile.Entry = DefaultEntry
	}
	if m.Compile.Convention == "" {
		m.Compile.Convention = DefaultConvention
	}
	if m.Compile.Format == "" {
		m.Compile.Format = DefaultFormat
	}
	if m.Compile.EnforceBuiltinSet == nil {
		enforce := true
		m.Compile.EnforceBuiltinSet = &enforce
	}
	if m.Cache.Path == "" {
		m.Cache.Path = DefaultCachePath
	}
}

// FindAndLoad walks up from startDir to find a cairopack.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Enforce reports whether unrecognized builtins are rejected.
func (c Compile) Enforce() bool {
	return c.EnforceBuiltinSet == nil || *c.EnforceBuiltinSet
}

// Resolve returns p relative to the manifest directory, or p itself when it
// is empty or absolute.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// InputPath returns the absolute path of the configured input bundle.
func (m *Manifest) InputPath() string {
	return m.Resolve(m.Compile.Input)
}

// OutputPath returns the absolute path of the configured output file.
func (m *Manifest) OutputPath() string {
	return m.Resolve(m.Compile.Output)
}

// CachePath returns the absolute path of the cache database.
func (m *Manifest) CachePath() string {
	return m.Resolve(m.Cache.Path)
}
