package artifact

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/cairopack/builtins"
	"github.com/chazu/cairopack/casm"
	"github.com/chazu/cairopack/felt"
	"github.com/chazu/cairopack/hints"
	"github.com/chazu/cairopack/segment"
	"github.com/chazu/cairopack/sierra"
)

var log = commonlog.GetLogger("cairopack.artifact")

// DefaultEntrySuffix selects a plain program's main function.
const DefaultEntrySuffix = "::main"

// Stage names the pipeline step that failed.
type Stage string

const (
	StageTypes      Stage = "types"
	StageCompile    Stage = "compile"
	StageAssemble   Stage = "assemble"
	StageHints      Stage = "hints"
	StageLookup     Stage = "lookup"
	StageEntryPoint Stage = "entry-point"
)

// StageError tags an error with the stage it came from.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("artifact: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(s Stage, err error) error {
	return &StageError{Stage: s, Err: err}
}

// Options control one build.
type Options struct {
	// EntrySuffix selects the main function of a plain program. Empty means
	// DefaultEntrySuffix.
	EntrySuffix string
	Compile     casm.Config
	// PermissiveBuiltins accepts unrecognized leading parameters on
	// contract entry points instead of rejecting them.
	PermissiveBuiltins bool
	PythonicHints      bool
}

func (o Options) entrySuffix() string {
	if o.EntrySuffix == "" {
		return DefaultEntrySuffix
	}
	return o.EntrySuffix
}

// Assembler turns programs into artifacts. It is safe for concurrent use
// as long as its Compiler is.
type Assembler struct {
	Compiler casm.Compiler
	// Flattener defaults to casm.FlatAssembler.
	Flattener casm.Assembler
}

// New returns an Assembler around c.
func New(c casm.Compiler) *Assembler {
	return &Assembler{Compiler: c, Flattener: casm.FlatAssembler{}}
}

// build is the convention-independent part of a build.
type build struct {
	code    Code
	deriver *builtins.Deriver
}

func (a *Assembler) build(p *sierra.Program, opts Options) (*build, error) {
	if a.Compiler == nil {
		return nil, stageErr(StageCompile, fmt.Errorf("no compiler configured"))
	}
	resolver, err := sierra.NewTypeResolver(p.TypeDeclarations)
	if err != nil {
		return nil, stageErr(StageTypes, err)
	}

	compiled, err := a.Compiler.Compile(p, opts.Compile)
	if err != nil {
		return nil, stageErr(StageCompile, err)
	}
	log.Debugf("compiled %d functions into %d instructions", len(p.Funcs), len(compiled.Instructions))

	flat := a.Flattener
	if flat == nil {
		flat = casm.FlatAssembler{}
	}
	asm, err := flat.Assemble(compiled.Instructions)
	if err != nil {
		return nil, stageErr(StageAssemble, err)
	}
	if want := compiled.BytecodeSize(); len(asm.Bytecode) != want {
		return nil, stageErr(StageAssemble, fmt.Errorf("%w: assembled %d words, instructions declare %d", casm.ErrSizeMismatch, len(asm.Bytecode), want))
	}

	projected := hints.Project(compiled.Instructions)
	if projected == nil {
		projected = []hints.PCHints{}
	}
	code := Code{
		Prime:           felt.NewBigUint(felt.Prime),
		CompilerVersion: a.Compiler.Version(),
		Bytecode:        felt.ReduceAll(asm.Bytecode),
		Hints:           projected,
	}
	if opts.PythonicHints {
		py, err := hints.Pythonic(projected)
		if err != nil {
			return nil, stageErr(StageHints, err)
		}
		code.PythonicHints = py
	}

	starts := make([]int, len(p.Funcs))
	for i, fn := range p.Funcs {
		starts[i] = fn.EntryPoint
	}
	seg, err := segment.Compute(segment.Input{
		BytecodeLen:    len(asm.Bytecode),
		FunctionStarts: starts,
		SegmentStarts:  compiled.DebugInfo.SegmentStarts,
		Offsets:        &compiled.DebugInfo,
	})
	if err != nil {
		log.Warningf("bytecode segmentation unavailable: %s", err)
	} else {
		code.BytecodeSegmentLengths = &seg
	}

	return &build{
		code: code,
		deriver: &builtins.Deriver{
			Resolver:   resolver,
			Offsets:    &compiled.DebugInfo,
			Permissive: opts.PermissiveBuiltins,
		},
	}, nil
}

// BuildProgram builds a plain program artifact around the function whose
// name ends in opts.EntrySuffix.
func (a *Assembler) BuildProgram(p *sierra.Program, opts Options) (*ProgramArtifact, error) {
	b, err := a.build(p, opts)
	if err != nil {
		return nil, err
	}
	main, err := p.FindFunction(opts.entrySuffix())
	if err != nil {
		return nil, stageErr(StageLookup, err)
	}
	ep, err := b.deriver.DeriveProgram(main)
	if err != nil {
		return nil, stageErr(StageEntryPoint, err)
	}
	log.Debugf("main entry %s at offset %d, builtins %v", main.ID, ep.Offset, ep.Builtins)
	return &ProgramArtifact{
		Code:      b.code,
		MainEntry: EntryPoint{Offset: ep.Offset, Builtins: ep.Builtins},
	}, nil
}

// BuildContract builds a contract class artifact. Every declared entry
// point must follow the contract calling convention.
func (a *Assembler) BuildContract(p *sierra.Program, eps *sierra.ContractEntryPoints, opts Options) (*ContractArtifact, error) {
	if eps == nil {
		return nil, stageErr(StageLookup, fmt.Errorf("no contract entry points"))
	}
	b, err := a.build(p, opts)
	if err != nil {
		return nil, err
	}
	out := &ContractArtifact{Code: b.code}
	if out.EntryPointsByType.External, err = deriveAll(p, b.deriver, eps.External); err != nil {
		return nil, err
	}
	if out.EntryPointsByType.L1Handler, err = deriveAll(p, b.deriver, eps.L1Handler); err != nil {
		return nil, err
	}
	if out.EntryPointsByType.Constructor, err = deriveAll(p, b.deriver, eps.Constructor); err != nil {
		return nil, err
	}
	log.Debugf("derived %d contract entry points", out.EntryPointsByType.Len())
	return out, nil
}

func deriveAll(p *sierra.Program, d *builtins.Deriver, decls []sierra.EntryPointDecl) ([]ContractEntryPoint, error) {
	out := make([]ContractEntryPoint, 0, len(decls))
	for _, decl := range decls {
		fn, err := p.FunctionAt(decl.FunctionIdx)
		if err != nil {
			return nil, stageErr(StageLookup, fmt.Errorf("selector %s: %w", decl.Selector, err))
		}
		ep, err := d.Derive(fn)
		if err != nil {
			return nil, stageErr(StageEntryPoint, fmt.Errorf("selector %s: %w", decl.Selector, err))
		}
		out = append(out, ContractEntryPoint{
			Selector: decl.Selector,
			Offset:   ep.Offset,
			Builtins: ep.Builtins,
		})
	}
	return out, nil
}
