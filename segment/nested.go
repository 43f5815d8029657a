// Package segment splits assembled bytecode into a tree of run lengths
// aligned to function and arena-block boundaries, so a verifier that only
// touches some segments can skip the rest by length.
package segment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// NestedIntList is either a leaf run length or a node of children. The
// zero value is Leaf(0). Values are immutable once built.
type NestedIntList struct {
	leaf     int
	children []NestedIntList
	node     bool
}

// Leaf returns a leaf holding n.
func Leaf(n int) NestedIntList {
	return NestedIntList{leaf: n}
}

// Node returns a node over children.
func Node(children ...NestedIntList) NestedIntList {
	return NestedIntList{children: append([]NestedIntList{}, children...), node: true}
}

// IsLeaf reports whether l is a leaf.
func (l NestedIntList) IsLeaf() bool {
	return !l.node
}

// Value returns the length held by a leaf, or 0 for a node.
func (l NestedIntList) Value() int {
	return l.leaf
}

// Children returns a copy of a node's children.
func (l NestedIntList) Children() []NestedIntList {
	return append([]NestedIntList(nil), l.children...)
}

// Sum adds up every leaf reachable from l.
func (l NestedIntList) Sum() int {
	if !l.node {
		return l.leaf
	}
	total := 0
	for _, c := range l.children {
		total += c.Sum()
	}
	return total
}

// Leaves returns the leaf values in order.
func (l NestedIntList) Leaves() []int {
	if !l.node {
		return []int{l.leaf}
	}
	var out []int
	for _, c := range l.children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Equal reports structural equality.
func (l NestedIntList) Equal(o NestedIntList) bool {
	if l.node != o.node {
		return false
	}
	if !l.node {
		return l.leaf == o.leaf
	}
	if len(l.children) != len(o.children) {
		return false
	}
	for i := range l.children {
		if !l.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// String renders l as "[7, [3, 2], 5]".
func (l NestedIntList) String() string {
	if !l.node {
		return fmt.Sprint(l.leaf)
	}
	parts := make([]string, len(l.children))
	for i, c := range l.children {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON encodes a leaf as a number and a node as an array.
func (l NestedIntList) MarshalJSON() ([]byte, error) {
	if !l.node {
		return json.Marshal(l.leaf)
	}
	return json.Marshal(l.children)
}

// UnmarshalJSON decodes the untagged form.
func (l *NestedIntList) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			return fmt.Errorf("segment: negative length %d", n)
		}
		*l = Leaf(n)
		return nil
	}
	var children []NestedIntList
	if err := json.Unmarshal(data, &children); err != nil {
		return fmt.Errorf("segment: expected a length or a list: %w", err)
	}
	*l = Node(children...)
	return nil
}

// MarshalCBOR encodes a leaf as an unsigned integer and a node as an array.
func (l NestedIntList) MarshalCBOR() ([]byte, error) {
	if !l.node {
		return cbor.Marshal(uint64(l.leaf))
	}
	return cbor.Marshal(l.children)
}

// UnmarshalCBOR decodes the untagged form.
func (l *NestedIntList) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("segment: empty cbor item")
	}
	const majorUint, majorArray = 0, 4
	switch data[0] >> 5 {
	case majorUint:
		var n uint64
		if err := cbor.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("segment: %w", err)
		}
		*l = Leaf(int(n))
	case majorArray:
		var children []NestedIntList
		if err := cbor.Unmarshal(data, &children); err != nil {
			return fmt.Errorf("segment: %w", err)
		}
		*l = Node(children...)
	default:
		return fmt.Errorf("segment: unexpected cbor major type %d", data[0]>>5)
	}
	return nil
}
