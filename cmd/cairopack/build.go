package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/cairopack/artifact"
	"github.com/chazu/cairopack/casm"
	"github.com/chazu/cairopack/store"
)

var log = commonlog.GetLogger("cairopack")

const stdoutPath = "-"

// target pairs an input bundle with the file its artifact is written to.
type target struct {
	Input  string
	Output string
}

// outputName derives the artifact path from a bundle path:
// build/hello.bundle.json becomes build/hello.casm.json.
func outputName(input string, f artifact.Format) string {
	base := strings.TrimSuffix(input, ".bundle.json")
	if base == input {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	return base + ".casm" + f.Ext()
}

func planOutputs(inputs []string, output, outDir string, f artifact.Format) ([]target, error) {
	if output != "" && outDir != "" {
		return nil, fmt.Errorf("-o and -out-dir are mutually exclusive")
	}
	if output != "" && len(inputs) != 1 {
		return nil, fmt.Errorf("-o needs exactly one input, got %d", len(inputs))
	}

	targets := make([]target, 0, len(inputs))
	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		out := output
		if out == "" {
			out = outputName(in, f)
			if outDir != "" {
				out = filepath.Join(outDir, filepath.Base(out))
			}
		}
		if prev, dup := seen[out]; dup && out != stdoutPath {
			return nil, fmt.Errorf("%s and %s both write %s", prev, in, out)
		}
		seen[out] = in
		targets = append(targets, target{Input: in, Output: out})
	}
	return targets, nil
}

// result describes one written artifact.
type result struct {
	Input      string
	Output     string
	Convention string
	Size       int
	Hash       artifact.Hash
	Cached     bool
}

func (r result) summary() string {
	how := r.Convention
	if r.Cached {
		how += ", cached"
	} else {
		how += ", " + r.Hash.String()[:12]
	}
	return fmt.Sprintf("%s -> %s (%s, %s)", r.Input, r.Output, humanize.Bytes(uint64(r.Size)), how)
}

// buildAll builds every target with at most cfg.Jobs in flight. The first
// failure cancels targets that have not started yet.
func buildAll(cfg config, targets []target, stdout io.Writer) ([]result, error) {
	var cache *store.Store
	if cfg.CachePath != "" {
		var err error
		cache, err = store.Open(cfg.CachePath)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
		log.Debugf("using cache %s", cfg.CachePath)
	}

	results := make([]result, len(targets))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(cfg.Jobs)
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := buildOne(&cfg, t, cache, stdout)
			if err != nil {
				return fmt.Errorf("%s: %w", t.Input, err)
			}
			results[i] = r
			return nil
		})
	}
	err := g.Wait()

	done := results[:0]
	for _, r := range results {
		if r.Input != "" {
			done = append(done, r)
		}
	}
	return done, err
}

func buildOne(cfg *config, t target, cache *store.Store, stdout io.Writer) (result, error) {
	data, err := os.ReadFile(t.Input)
	if err != nil {
		return result{}, err
	}
	b, err := casm.DecodeBundle(data)
	if err != nil {
		return result{}, err
	}

	conv := cfg.Convention
	if conv == conventionAuto {
		conv = conventionProgram
		if b.IsContract() {
			conv = conventionContract
		}
	}
	if conv == conventionContract && !b.IsContract() {
		return result{}, fmt.Errorf("bundle declares no contract entry points")
	}
	r := result{Input: t.Input, Output: t.Output, Convention: conv}

	var key store.Key
	if cache != nil {
		key, err = store.NewKey(data, cfg.cacheKey(conv))
		if err != nil {
			return result{}, err
		}
		cached, err := cache.Get(key)
		switch {
		case err == nil:
			log.Debugf("cache hit for %s (%s)", t.Input, key)
			r.Size, r.Cached = len(cached), true
			return r, writeOutput(t.Output, cached, stdout)
		case !errors.Is(err, store.ErrNotFound):
			return result{}, err
		}
	}

	log.Infof("building %s as %s", t.Input, conv)
	asm := artifact.New(b.Compiler())
	var built any
	if conv == conventionContract {
		built, err = asm.BuildContract(&b.Program, b.EntryPoints, cfg.options())
	} else {
		built, err = asm.BuildProgram(&b.Program, cfg.options())
	}
	if err != nil {
		return result{}, err
	}

	out, err := artifact.Encode(built, artifact.Format(cfg.Format))
	if err != nil {
		return result{}, err
	}
	if r.Hash, err = artifact.HashOf(built); err != nil {
		return result{}, err
	}
	if cache != nil {
		if err := cache.Put(key, out); err != nil {
			return result{}, err
		}
	}
	r.Size = len(out)
	return r, writeOutput(t.Output, out, stdout)
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdoutPath {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
