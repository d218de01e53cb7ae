// SPDX-License-Identifier: MIT

package frame

import "strconv"

// Index is an ordered set of unique labels with O(1) position lookup.
// The zero value is an empty index. Index values are immutable.
type Index struct {
	labels []string
	pos    map[string]int
}

// NewIndex builds an index preserving label order.
// Errors: ErrDuplicateLabel when a label repeats.
func NewIndex(labels ...string) (Index, error) {
	ix := Index{labels: append([]string(nil), labels...), pos: make(map[string]int, len(labels))}
	for i, l := range labels {
		if _, dup := ix.pos[l]; dup {
			return Index{}, labelErrorf("NewIndex", l, ErrDuplicateLabel)
		}
		ix.pos[l] = i
	}

	return ix, nil
}

// MustIndex is NewIndex for labels known to be unique (generated ranges,
// network tables that passed validation). It panics on duplicates.
func MustIndex(labels ...string) Index {
	ix, err := NewIndex(labels...)
	if err != nil {
		panic(err)
	}

	return ix
}

// RangeIndex returns the labels "0".."n-1".
func RangeIndex(n int) Index {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}

	return MustIndex(labels...)
}

// Len returns the number of labels.
func (ix Index) Len() int { return len(ix.labels) }

// Labels returns a copy of the labels in order.
func (ix Index) Labels() []string { return append([]string(nil), ix.labels...) }

// Label returns the label at position i.
func (ix Index) Label(i int) string { return ix.labels[i] }

// Pos returns the position of label.
func (ix Index) Pos(label string) (int, bool) {
	i, ok := ix.pos[label]

	return i, ok
}

// Has reports whether label is present.
func (ix Index) Has(label string) bool {
	_, ok := ix.pos[label]

	return ok
}

// Equal reports identical labels in identical order.
func (ix Index) Equal(o Index) bool {
	if len(ix.labels) != len(o.labels) {
		return false
	}
	for i, l := range ix.labels {
		if o.labels[i] != l {
			return false
		}
	}

	return true
}

// permutation returns perm with o.labels[perm[i]] == ix.labels[i], or
// ErrLabelMismatch when the two indices do not hold the same label set.
// A nil perm means the indices are already identical.
func (ix Index) permutation(o Index) ([]int, error) {
	if ix.Equal(o) {
		return nil, nil
	}
	if len(ix.labels) != len(o.labels) {
		return nil, ErrLabelMismatch
	}
	perm := make([]int, len(ix.labels))
	for i, l := range ix.labels {
		j, ok := o.pos[l]
		if !ok {
			return nil, labelErrorf("align", l, ErrLabelMismatch)
		}
		perm[i] = j
	}

	return perm, nil
}

// positions maps labels to positions, failing on the first unknown label.
func (ix Index) positions(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		j, ok := ix.pos[l]
		if !ok {
			return nil, labelErrorf("select", l, ErrUnknownLabel)
		}
		out[i] = j
	}

	return out, nil
}
