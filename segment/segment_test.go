package segment

import (
	"encoding/json"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/cairopack/casm"
)

func TestNestedIntListBasics(t *testing.T) {
	l := Node(Leaf(7), Node(Leaf(3), Leaf(2)), Leaf(5))
	if l.IsLeaf() {
		t.Error("node reported as leaf")
	}
	if got := l.Sum(); got != 17 {
		t.Errorf("Sum = %d, want 17", got)
	}
	if got := l.String(); got != "[7, [3, 2], 5]" {
		t.Errorf("String = %q", got)
	}
	if got := l.Leaves(); !slices.Equal(got, []int{7, 3, 2, 5}) {
		t.Errorf("Leaves = %v", got)
	}
	if (NestedIntList{}).Sum() != 0 || !(NestedIntList{}).IsLeaf() {
		t.Error("zero value should be Leaf(0)")
	}

	children := l.Children()
	children[0] = Leaf(100)
	if l.Sum() != 17 {
		t.Error("Children must not expose internal storage")
	}
}

func TestNestedIntListJSON(t *testing.T) {
	l := Node(Leaf(7), Node(Leaf(3), Leaf(2)), Leaf(5))
	data, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[7,[3,2],5]" {
		t.Errorf("json = %s", data)
	}
	var back NestedIntList
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(l) {
		t.Errorf("round trip = %s, want %s", back, l)
	}

	if err := json.Unmarshal([]byte("12"), &back); err != nil || !back.Equal(Leaf(12)) {
		t.Errorf("leaf decode = %s, %v", back, err)
	}
	for _, bad := range []string{`-1`, `"x"`, `[1, "x"]`} {
		if err := json.Unmarshal([]byte(bad), &back); err == nil {
			t.Errorf("Unmarshal(%s) should fail", bad)
		}
	}
}

func TestNestedIntListCBOR(t *testing.T) {
	l := Node(Leaf(7), Node(Leaf(3), Leaf(2)), Leaf(5), Node())
	data, err := cbor.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	var back NestedIntList
	if err := cbor.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(l) {
		t.Errorf("round trip = %s, want %s", back, l)
	}
}

func TestComputeDemoLayout(t *testing.T) {
	b, err := casm.LoadBundle("../casm/testdata/demo.bundle.json")
	if err != nil {
		t.Fatal(err)
	}
	var starts []int
	for _, f := range b.Program.Funcs {
		starts = append(starts, f.EntryPoint)
	}
	got, err := Compute(Input{
		BytecodeLen:    b.Compiled.BytecodeSize(),
		FunctionStarts: starts,
		SegmentStarts:  b.Compiled.DebugInfo.SegmentStarts,
		Offsets:        &b.Compiled.DebugInfo,
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := Node(Leaf(7), Node(Leaf(3), Leaf(2)), Leaf(5))
	if !got.Equal(want) {
		t.Errorf("Compute = %s, want %s", got, want)
	}
}

func TestComputeFlat(t *testing.T) {
	debug := &casm.DebugInfo{StatementOffsets: []int{0, 4, 4, 10}}
	got, err := Compute(Input{BytecodeLen: 12, FunctionStarts: []int{3, 0, 1, 2}, Offsets: debug})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// Statements 1 and 2 share an offset and collapse into one boundary.
	want := Node(Leaf(4), Leaf(6), Leaf(2))
	if !got.Equal(want) {
		t.Errorf("Compute = %s, want %s", got, want)
	}
}

func TestComputeBoundaryAtEnd(t *testing.T) {
	debug := &casm.DebugInfo{StatementOffsets: []int{0, 5, 10}}
	tests := []struct {
		name string
		in   Input
	}{
		{"nested start at end", Input{BytecodeLen: 10, FunctionStarts: []int{0, 1}, SegmentStarts: []int{2}, Offsets: debug}},
		{"empty trailing function", Input{BytecodeLen: 10, FunctionStarts: []int{0, 1, 2}, Offsets: debug}},
	}
	want := Node(Leaf(5), Leaf(5))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.in)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("Compute = %s, want %s", got, want)
			}
		})
	}
}

func TestComputeEmptyBytecode(t *testing.T) {
	got, err := Compute(Input{})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(Leaf(0)) {
		t.Errorf("Compute(empty) = %s, want 0", got)
	}
}

func TestComputeErrors(t *testing.T) {
	debug := &casm.DebugInfo{StatementOffsets: []int{2, 5, 20}}
	cases := []struct {
		name string
		in   Input
		want error
	}{
		{"gap at start", Input{BytecodeLen: 10, FunctionStarts: []int{0, 1}, Offsets: debug}, ErrInconsistentOffsets},
		{"start past end", Input{BytecodeLen: 10, FunctionStarts: []int{2}, Offsets: debug}, ErrInconsistentOffsets},
		{"missing statement", Input{BytecodeLen: 10, FunctionStarts: []int{7}, Offsets: debug}, casm.ErrMissingStatementOffset},
		{"no functions", Input{BytecodeLen: 10, Offsets: debug}, ErrInconsistentOffsets},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.in)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if _, err := Compute(Input{BytecodeLen: 3, FunctionStarts: []int{0}}); err == nil {
		t.Error("expected error without an offset table")
	}
}

// TestComputeLeavesCoverBytecode checks the partition property over many
// generated layouts.
func TestComputeLeavesCoverBytecode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		nStmts := 1 + rng.Intn(30)
		offsets := make([]int, nStmts)
		pos := 0
		for i := range offsets {
			offsets[i] = pos
			pos += 1 + rng.Intn(4)
		}
		total := pos
		funcs := []int{0}
		var nested []int
		for s := 1; s < nStmts; s++ {
			switch rng.Intn(4) {
			case 0:
				funcs = append(funcs, s)
			case 1:
				nested = append(nested, s)
			}
		}
		got, err := Compute(Input{
			BytecodeLen:    total,
			FunctionStarts: funcs,
			SegmentStarts:  nested,
			Offsets:        &casm.DebugInfo{StatementOffsets: offsets},
		})
		if err != nil {
			t.Fatalf("iteration %d: %v", iter, err)
		}
		if got.Sum() != total {
			t.Fatalf("iteration %d: sum = %d, want %d (%s)", iter, got.Sum(), total, got)
		}
		for _, leaf := range got.Leaves() {
			if leaf <= 0 {
				t.Fatalf("iteration %d: non-positive leaf in %s", iter, got)
			}
		}
		if len(got.Children()) != len(funcs) {
			t.Fatalf("iteration %d: %d children for %d functions", iter, len(got.Children()), len(funcs))
		}
	}
}
