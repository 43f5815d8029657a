package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/chazu/cairopack/artifact"
)

// copyDemo copies the demo bundle into dir and returns its path.
func copyDemo(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "casm", "testdata", "demo.bundle.json"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "demo.bundle.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunProgramToStdout(t *testing.T) {
	bundle := copyDemo(t, t.TempDir())
	code, out, errOut := runCLI(t, "-no-manifest", "-o", "-", "-convention", "program", bundle)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	a, err := artifact.DecodeProgramJSON([]byte(out))
	if err != nil {
		t.Fatalf("decode stdout: %v", err)
	}
	if a.MainEntry.Offset != 0 || !slices.Equal(a.MainEntry.Builtins, []string{"range_check"}) {
		t.Errorf("main entry = %+v", a.MainEntry)
	}
	if len(a.Bytecode) != 17 {
		t.Errorf("bytecode length = %d, want 17", len(a.Bytecode))
	}
}

func TestRunAutoContractCBOR(t *testing.T) {
	dir := t.TempDir()
	bundle := copyDemo(t, dir)
	outDir := filepath.Join(dir, "out")

	code, _, errOut := runCLI(t, "-no-manifest", "-format", "cbor", "-out-dir", outDir, bundle)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "contract") {
		t.Errorf("summary should name the convention: %s", errOut)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "demo.casm.cbor"))
	if err != nil {
		t.Fatal(err)
	}
	a, err := artifact.DecodeContractCBOR(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ext := a.EntryPointsByType.External
	if len(ext) != 1 || ext[0].Offset != 7 || !slices.Equal(ext[0].Builtins, []string{"range_check", "pedersen"}) {
		t.Errorf("external = %+v", ext)
	}
}

func TestRunCache(t *testing.T) {
	dir := t.TempDir()
	bundle := copyDemo(t, dir)
	db := filepath.Join(dir, "cache.db")
	out := filepath.Join(dir, "demo.casm.json")

	code, _, errOut := runCLI(t, "-no-manifest", "-cache", db, bundle)
	if code != 0 {
		t.Fatalf("first run: exit %d: %s", code, errOut)
	}
	if strings.Contains(errOut, "cached") {
		t.Errorf("first run should build: %s", errOut)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(out); err != nil {
		t.Fatal(err)
	}

	code, _, errOut = runCLI(t, "-no-manifest", "-cache", db, bundle)
	if code != 0 {
		t.Fatalf("second run: exit %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "cached") {
		t.Errorf("second run should hit the cache: %s", errOut)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached artifact differs from the built one")
	}

	code, _, errOut = runCLI(t, "-no-manifest", "-cache", db, "-pythonic", bundle)
	if code != 0 || strings.Contains(errOut, "cached") {
		t.Errorf("changed options should miss the cache: exit %d: %s", code, errOut)
	}
}

func TestRunCacheMaintenance(t *testing.T) {
	dir := t.TempDir()
	bundle := copyDemo(t, dir)
	db := filepath.Join(dir, "cache.db")

	for _, extra := range [][]string{nil, {"-pythonic"}} {
		args := append([]string{"-no-manifest", "-cache", db}, extra...)
		if code, _, errOut := runCLI(t, append(args, bundle)...); code != 0 {
			t.Fatalf("build %v: exit %d: %s", extra, code, errOut)
		}
	}

	code, out, errOut := runCLI(t, "-no-manifest", "-cache", db, "-cache-stats")
	if code != 0 {
		t.Fatalf("stats: exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "2 artifacts") {
		t.Errorf("stats = %q, want 2 artifacts", out)
	}

	code, out, errOut = runCLI(t, "-no-manifest", "-cache", db, "-cache-clear")
	if code != 0 {
		t.Fatalf("clear: exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "0 artifacts, 0 B") {
		t.Errorf("after clear = %q, want an empty cache", out)
	}

	code, _, errOut = runCLI(t, "-no-manifest", "-cache", db, bundle)
	if code != 0 || strings.Contains(errOut, "cached") {
		t.Errorf("cleared cache should rebuild: exit %d: %s", code, errOut)
	}

	if code, _, _ := runCLI(t, "-no-manifest", "-cache-stats"); code != 2 {
		t.Errorf("stats without a cache: exit %d, want 2", code)
	}
}

func TestRunFromManifest(t *testing.T) {
	dir := t.TempDir()
	copyDemo(t, dir)
	toml := `
[project]
name = "demo"

[compile]
input = "demo.bundle.json"
output = "build/demo.json"
convention = "program"
pythonic-hints = true
`
	if err := os.WriteFile(filepath.Join(dir, "cairopack.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	code, _, errOut := runCLI(t)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	data, err := os.ReadFile(filepath.Join(dir, "build", "demo.json"))
	if err != nil {
		t.Fatal(err)
	}
	a, err := artifact.DecodeProgramJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.PythonicHints) == 0 {
		t.Error("manifest asked for pythonic hints")
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	bundle := copyDemo(t, dir)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no inputs", []string{"-no-manifest"}, 2},
		{"bad flag", []string{"-no-such-flag"}, 2},
		{"bad format", []string{"-no-manifest", "-format", "yaml", bundle}, 2},
		{"bad convention", []string{"-no-manifest", "-convention", "library", bundle}, 2},
		{"-o with two inputs", []string{"-no-manifest", "-o", "x.json", bundle, bundle}, 2},
		{"missing input", []string{"-no-manifest", "-o", "-", filepath.Join(dir, "missing.json")}, 1},
		{"missing entry", []string{"-no-manifest", "-o", "-", "-convention", "program", "-entry", "::nope", bundle}, 1},
		{"size limit", []string{"-no-manifest", "-o", "-", "-max-bytecode-size", "4", bundle}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			if code != tt.code {
				t.Errorf("exit = %d, want %d (stderr: %s)", code, tt.code, errOut)
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input string
		f     artifact.Format
		want  string
	}{
		{"build/hello.bundle.json", artifact.FormatJSON, "build/hello.casm.json"},
		{"hello.json", artifact.FormatCBOR, "hello.casm.cbor"},
		{"hello", artifact.FormatJSON, "hello.casm.json"},
	}
	for _, tt := range tests {
		if got := outputName(tt.input, tt.f); got != tt.want {
			t.Errorf("outputName(%q, %s) = %q, want %q", tt.input, tt.f, got, tt.want)
		}
	}
}

func TestPlanOutputsDuplicate(t *testing.T) {
	_, err := planOutputs([]string{"a/x.bundle.json", "b/x.bundle.json"}, "", "out", artifact.FormatJSON)
	if err == nil {
		t.Error("two inputs writing the same file should be rejected")
	}
	if _, err := planOutputs([]string{"x.json"}, "o.json", "out", artifact.FormatJSON); err == nil {
		t.Error("-o and -out-dir together should be rejected")
	}
}
