// cairopack packages external compiler output into executable artifacts.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/cairopack/artifact"
	"github.com/chazu/cairopack/manifest"
)

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v++
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cairopack", flag.ContinueOnError)
	fs.SetOutput(stderr)

	output := fs.String("o", "", "Output file, or - for stdout (single input only)")
	outDir := fs.String("out-dir", "", "Directory for output files")
	convention := fs.String("convention", "", "Calling convention: program, contract or auto")
	entry := fs.String("entry", "", "Suffix of the main function (program convention)")
	format := fs.String("format", "", "Output format: json or cbor")
	pythonic := fs.Bool("pythonic", false, "Include pythonic hint text")
	enforce := fs.Bool("enforce-builtins", true, "Reject unrecognized builtins in contract entry points")
	gasCheck := fs.Bool("gas-usage-check", false, "Ask the compiler to check gas usage")
	maxSize := fs.Int("max-bytecode-size", 0, "Maximum bytecode size in words (0 = unlimited)")
	cachePath := fs.String("cache", "", "Artifact cache database (empty = manifest setting)")
	jobs := fs.Int("j", runtime.NumCPU(), "Number of inputs to build in parallel")
	noManifest := fs.Bool("no-manifest", false, "Ignore cairopack.toml")
	cacheStats := fs.Bool("cache-stats", false, "Print cache entry count and size, then exit")
	cacheClear := fs.Bool("cache-clear", false, "Remove every cached artifact, then exit")
	var v verbosity
	fs.Var(&v, "v", "Verbose output (repeat for debug)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: cairopack [options] [bundle.json...]\n\n")
		fmt.Fprintf(stderr, "Builds executable artifacts from compiler bundles. With no inputs the\n")
		fmt.Fprintf(stderr, "input named in cairopack.toml is built.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  cairopack hello.bundle.json                 # writes hello.casm.json\n")
		fmt.Fprintf(stderr, "  cairopack -o - -pythonic hello.bundle.json  # print with pythonic hints\n")
		fmt.Fprintf(stderr, "  cairopack -format cbor -out-dir out/ build/*.bundle.json\n")
		fmt.Fprintf(stderr, "  cairopack -cache .cairopack/cache.db -j 4 build/*.bundle.json\n")
		fmt.Fprintf(stderr, "  cairopack -cache .cairopack/cache.db -cache-stats\n")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	commonlog.Configure(int(v), nil)

	var m *manifest.Manifest
	if !*noManifest {
		var err error
		m, err = manifest.FindAndLoad(".")
		if err != nil {
			fmt.Fprintf(stderr, "Error loading manifest: %v\n", err)
			return 1
		}
	}

	cfg := defaultConfig()
	if m != nil {
		cfg.applyManifest(m)
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["convention"] {
		cfg.Convention = *convention
	}
	if set["entry"] {
		cfg.Entry = *entry
	}
	if set["format"] {
		cfg.Format = *format
	}
	if set["pythonic"] {
		cfg.Pythonic = *pythonic
	}
	if set["enforce-builtins"] {
		cfg.EnforceBuiltins = *enforce
	}
	if set["gas-usage-check"] {
		cfg.GasUsageCheck = *gasCheck
	}
	if set["max-bytecode-size"] {
		cfg.MaxBytecodeSize = *maxSize
	}
	if set["cache"] {
		cfg.CachePath = *cachePath
	}
	cfg.Jobs = *jobs

	if *cacheStats || *cacheClear {
		if cfg.CachePath == "" {
			fmt.Fprintln(stderr, "Error: no cache configured (use -cache or [cache] in cairopack.toml)")
			return 2
		}
		if err := maintainCache(cfg.CachePath, *cacheClear, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	inputs := fs.Args()
	if len(inputs) == 0 && m != nil && m.Compile.Input != "" {
		inputs = []string{m.InputPath()}
		if *output == "" && m.Compile.Output != "" {
			*output = m.OutputPath()
		}
	}
	if len(inputs) == 0 {
		fs.Usage()
		return 2
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	targets, err := planOutputs(inputs, *output, *outDir, artifact.Format(cfg.Format))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	results, err := buildAll(cfg, targets, stdout)
	for _, r := range results {
		if r.Output == stdoutPath {
			continue
		}
		fmt.Fprintln(stderr, r.summary())
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
