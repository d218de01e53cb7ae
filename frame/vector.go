// SPDX-License-Identifier: MIT

package frame

import "math"

// Vector is a labeled one-dimensional series of float64 values.
type Vector struct {
	index Index
	data  []float64
}

// NewVector pairs labels with a copy of values.
// Errors: ErrDuplicateLabel, ErrShape (length mismatch).
func NewVector(labels []string, values []float64) (*Vector, error) {
	ix, err := NewIndex(labels...)
	if err != nil {
		return nil, err
	}

	return VectorOn(ix, values)
}

// VectorOn pairs an existing index with a copy of values.
func VectorOn(ix Index, values []float64) (*Vector, error) {
	if len(values) != ix.Len() {
		return nil, frameErrorf("VectorOn", ErrShape)
	}

	return &Vector{index: ix, data: append([]float64(nil), values...)}, nil
}

// ZeroVector returns an all-zero vector on ix.
func ZeroVector(ix Index) *Vector {
	return &Vector{index: ix, data: make([]float64, ix.Len())}
}

// Index returns the label index.
func (v *Vector) Index() Index { return v.index }

// Len returns the number of entries.
func (v *Vector) Len() int { return len(v.data) }

// Values returns a copy of the values in index order.
func (v *Vector) Values() []float64 { return append([]float64(nil), v.data...) }

// At returns the value at label.
func (v *Vector) At(label string) (float64, bool) {
	i, ok := v.index.Pos(label)
	if !ok {
		return 0, false
	}

	return v.data[i], true
}

// Get returns the value at label, or 0 for an unknown label.
func (v *Vector) Get(label string) float64 {
	x, _ := v.At(label)

	return x
}

// AtPos returns the value at position i.
func (v *Vector) AtPos(i int) float64 { return v.data[i] }

// Set stores x at label. Errors: ErrUnknownLabel.
func (v *Vector) Set(label string, x float64) error {
	i, ok := v.index.Pos(label)
	if !ok {
		return labelErrorf("Vector.Set", label, ErrUnknownLabel)
	}
	v.data[i] = x

	return nil
}

// Map returns a new vector with fn applied to every value.
func (v *Vector) Map(fn func(float64) float64) *Vector {
	out := ZeroVector(v.index)
	for i, x := range v.data {
		out.data[i] = fn(x)
	}

	return out
}

// ClipLower returns max(v, lo) element-wise.
func (v *Vector) ClipLower(lo float64) *Vector {
	return v.Map(func(x float64) float64 { return math.Max(x, lo) })
}

// ClipUpper returns min(v, hi) element-wise.
func (v *Vector) ClipUpper(hi float64) *Vector {
	return v.Map(func(x float64) float64 { return math.Min(x, hi) })
}

// Abs returns |v|.
func (v *Vector) Abs() *Vector { return v.Map(math.Abs) }

// Neg returns -v.
func (v *Vector) Neg() *Vector { return v.Map(func(x float64) float64 { return -x }) }

// Sign returns -1, 0 or +1 per element.
func (v *Vector) Sign() *Vector { return v.Map(Sign) }

// Round rounds every value to the given number of decimals.
func (v *Vector) Round(decimals int) *Vector {
	return v.Map(func(x float64) float64 { return Round(x, decimals) })
}

// Finite replaces NaN and ±Inf with zero.
func (v *Vector) Finite() *Vector { return v.Map(Finite) }

// Sum returns the sum of all values.
func (v *Vector) Sum() float64 {
	var s float64
	for _, x := range v.data {
		s += x
	}

	return s
}

// Scale returns alpha·v.
func (v *Vector) Scale(alpha float64) *Vector {
	return v.Map(func(x float64) float64 { return alpha * x })
}

// aligned returns o's data in v's label order.
func (v *Vector) aligned(op string, o *Vector) ([]float64, error) {
	perm, err := v.index.permutation(o.index)
	if err != nil {
		return nil, frameErrorf(op, err)
	}
	if perm == nil {
		return o.data, nil
	}
	out := make([]float64, len(perm))
	for i, j := range perm {
		out[i] = o.data[j]
	}

	return out, nil
}

func (v *Vector) zip(op string, o *Vector, fn func(a, b float64) float64) (*Vector, error) {
	od, err := v.aligned(op, o)
	if err != nil {
		return nil, err
	}
	out := ZeroVector(v.index)
	for i, a := range v.data {
		out.data[i] = fn(a, od[i])
	}

	return out, nil
}

// Add returns v + o, aligned on labels.
func (v *Vector) Add(o *Vector) (*Vector, error) {
	return v.zip("Vector.Add", o, func(a, b float64) float64 { return a + b })
}

// Sub returns v - o, aligned on labels.
func (v *Vector) Sub(o *Vector) (*Vector, error) {
	return v.zip("Vector.Sub", o, func(a, b float64) float64 { return a - b })
}

// Mul returns v ∘ o, aligned on labels.
func (v *Vector) Mul(o *Vector) (*Vector, error) {
	return v.zip("Vector.Mul", o, func(a, b float64) float64 { return a * b })
}

// Div returns v / o, aligned on labels. Division by zero yields NaN/Inf;
// chain Finite to coerce them.
func (v *Vector) Div(o *Vector) (*Vector, error) {
	return v.zip("Vector.Div", o, func(a, b float64) float64 { return a / b })
}

// Min returns min(v, o) element-wise, aligned on labels.
func (v *Vector) Min(o *Vector) (*Vector, error) {
	return v.zip("Vector.Min", o, math.Min)
}

// Reindex conforms v to ix: labels absent from v take fill, labels absent
// from ix are dropped.
func (v *Vector) Reindex(ix Index, fill float64) *Vector {
	out := ZeroVector(ix)
	for i, l := range ix.labels {
		if j, ok := v.index.Pos(l); ok {
			out.data[i] = v.data[j]
		} else {
			out.data[i] = fill
		}
	}

	return out
}

// Select returns the entries at labels, in the order given.
// Errors: ErrUnknownLabel, ErrDuplicateLabel.
func (v *Vector) Select(labels ...string) (*Vector, error) {
	pos, err := v.index.positions(labels)
	if err != nil {
		return nil, err
	}
	ix, err := NewIndex(labels...)
	if err != nil {
		return nil, err
	}
	out := ZeroVector(ix)
	for i, j := range pos {
		out.data[i] = v.data[j]
	}

	return out, nil
}

// Filter keeps entries for which keep returns true, preserving order.
func (v *Vector) Filter(keep func(label string, x float64) bool) *Vector {
	var labels []string
	var vals []float64
	for i, l := range v.index.labels {
		if keep(l, v.data[i]) {
			labels = append(labels, l)
			vals = append(vals, v.data[i])
		}
	}

	return &Vector{index: MustIndex(labels...), data: vals}
}

// Concat appends o after v. Errors: ErrDuplicateLabel on overlapping labels.
func (v *Vector) Concat(o *Vector) (*Vector, error) {
	labels := append(v.index.Labels(), o.index.labels...)
	ix, err := NewIndex(labels...)
	if err != nil {
		return nil, frameErrorf("Vector.Concat", err)
	}

	return &Vector{index: ix, data: append(v.Values(), o.data...)}, nil
}

// Each visits entries in index order.
func (v *Vector) Each(fn func(label string, x float64)) {
	for i, l := range v.index.labels {
		fn(l, v.data[i])
	}
}

// Sign returns -1, 0 or +1 (NaN maps to 0).
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Round rounds x half away from zero at the given number of decimals.
func Round(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(decimals))
	r := math.Round(x*p) / p
	if r == 0 {
		return 0 // drop negative zero
	}

	return r
}

// Finite maps NaN and ±Inf to zero.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}

	return x
}
