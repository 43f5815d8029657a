package segment

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInconsistentOffsets is returned when debug metadata cannot describe a
// gapless partition of the bytecode.
var ErrInconsistentOffsets = errors.New("inconsistent segment offsets")

// OffsetTable maps statement indices to code offsets.
type OffsetTable interface {
	CodeOffset(stmt int) (int, error)
}

// Input describes one program's segment boundaries.
type Input struct {
	BytecodeLen int
	// FunctionStarts holds the entry statement of every function.
	FunctionStarts []int
	// SegmentStarts holds statements opening a nested segment inside the
	// function that contains them.
	SegmentStarts []int
	Offsets       OffsetTable
}

// Compute builds the segmentation tree: one child per function, itself a
// node of runs when nested segments start inside it. The leaves always add
// up to BytecodeLen.
func Compute(in Input) (NestedIntList, error) {
	if in.BytecodeLen == 0 {
		return Leaf(0), nil
	}
	if in.Offsets == nil {
		return NestedIntList{}, fmt.Errorf("segment: no statement offsets")
	}
	starts, err := codeOffsets(in.Offsets, in.FunctionStarts, in.BytecodeLen)
	if err != nil {
		return NestedIntList{}, err
	}
	if len(starts) == 0 {
		return NestedIntList{}, fmt.Errorf("segment: %w: no functions", ErrInconsistentOffsets)
	}
	if starts[0] != 0 {
		return NestedIntList{}, fmt.Errorf("segment: %w: first function starts at %d", ErrInconsistentOffsets, starts[0])
	}
	nested, err := codeOffsets(in.Offsets, in.SegmentStarts, in.BytecodeLen)
	if err != nil {
		return NestedIntList{}, err
	}

	bounds := append(starts, in.BytecodeLen)
	children := make([]NestedIntList, 0, len(starts))
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		cuts := []int{start}
		for _, n := range nested {
			if n > start && n < end {
				cuts = append(cuts, n)
			}
		}
		if len(cuts) == 1 {
			children = append(children, Leaf(end-start))
			continue
		}
		cuts = append(cuts, end)
		runs := make([]NestedIntList, 0, len(cuts)-1)
		for j := 0; j+1 < len(cuts); j++ {
			runs = append(runs, Leaf(cuts[j+1]-cuts[j]))
		}
		children = append(children, Node(runs...))
	}

	root := Node(children...)
	if sum := root.Sum(); sum != in.BytecodeLen {
		return NestedIntList{}, fmt.Errorf("segment: %w: leaves sum to %d, bytecode has %d words", ErrInconsistentOffsets, sum, in.BytecodeLen)
	}
	return root, nil
}

// codeOffsets resolves statements to sorted, distinct code offsets inside
// [0, limit). A boundary at limit opens an empty run and is dropped.
func codeOffsets(table OffsetTable, stmts []int, limit int) ([]int, error) {
	out := make([]int, 0, len(stmts))
	for _, s := range stmts {
		off, err := table.CodeOffset(s)
		if err != nil {
			return nil, fmt.Errorf("segment: %w", err)
		}
		if off == limit {
			continue
		}
		if off < 0 || off > limit {
			return nil, fmt.Errorf("segment: %w: statement %d at offset %d outside [0, %d]", ErrInconsistentOffsets, s, off, limit)
		}
		out = append(out, off)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
