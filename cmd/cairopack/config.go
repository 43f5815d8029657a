package main

import (
	"fmt"

	"github.com/chazu/cairopack/artifact"
	"github.com/chazu/cairopack/casm"
	"github.com/chazu/cairopack/manifest"
)

const (
	conventionAuto     = "auto"
	conventionProgram  = "program"
	conventionContract = "contract"
)

// config is the merged result of defaults, cairopack.toml and flags.
type config struct {
	Convention      string
	Entry           string
	Format          string
	Pythonic        bool
	EnforceBuiltins bool
	GasUsageCheck   bool
	MaxBytecodeSize int
	CachePath       string
	Jobs            int
}

func defaultConfig() config {
	return config{
		Convention:      conventionAuto,
		Entry:           artifact.DefaultEntrySuffix,
		Format:          string(artifact.FormatJSON),
		EnforceBuiltins: true,
		Jobs:            1,
	}
}

func (c *config) applyManifest(m *manifest.Manifest) {
	c.Convention = m.Compile.Convention
	c.Entry = m.Compile.Entry
	c.Format = m.Compile.Format
	c.Pythonic = m.Compile.PythonicHints
	c.EnforceBuiltins = m.Compile.Enforce()
	c.GasUsageCheck = m.Compile.GasUsageCheck
	c.MaxBytecodeSize = m.Compile.MaxBytecodeSize
	if m.Cache.Enabled {
		c.CachePath = m.CachePath()
	}
}

func (c *config) validate() error {
	switch c.Convention {
	case conventionAuto, conventionProgram, conventionContract:
	default:
		return fmt.Errorf("unknown convention %q (want program, contract or auto)", c.Convention)
	}
	if _, err := artifact.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Entry == "" {
		return fmt.Errorf("entry suffix must not be empty")
	}
	if c.MaxBytecodeSize < 0 {
		return fmt.Errorf("max bytecode size must not be negative")
	}
	if c.Jobs < 1 {
		c.Jobs = 1
	}
	return nil
}

func (c *config) options() artifact.Options {
	return artifact.Options{
		EntrySuffix: c.Entry,
		Compile: casm.Config{
			GasUsageCheck:   c.GasUsageCheck,
			MaxBytecodeSize: c.MaxBytecodeSize,
		},
		PermissiveBuiltins: !c.EnforceBuiltins,
		PythonicHints:      c.Pythonic,
	}
}

// cacheKey lists everything besides the bundle that shapes the output.
type cacheKey struct {
	Schema          string `cbor:"1,keyasint"`
	Convention      string `cbor:"2,keyasint"`
	Entry           string `cbor:"3,keyasint"`
	Format          string `cbor:"4,keyasint"`
	Pythonic        bool   `cbor:"5,keyasint"`
	EnforceBuiltins bool   `cbor:"6,keyasint"`
	GasUsageCheck   bool   `cbor:"7,keyasint"`
	MaxBytecodeSize int    `cbor:"8,keyasint"`
}

func (c *config) cacheKey(convention string) cacheKey {
	return cacheKey{
		Schema:          "cairopack/1",
		Convention:      convention,
		Entry:           c.Entry,
		Format:          c.Format,
		Pythonic:        c.Pythonic,
		EnforceBuiltins: c.EnforceBuiltins,
		GasUsageCheck:   c.GasUsageCheck,
		MaxBytecodeSize: c.MaxBytecodeSize,
	}
}
