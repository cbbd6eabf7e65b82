package coefficients

import (
	"fmt"
)

// Array holds one Bundle per marker or per monitored surface. Storage is allocated
// once and reused for the lifetime of the owner.
type Array struct {
	bundles []Bundle
}

// NewArray allocates n zeroed bundles
func NewArray(n int) (*Array, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid bundle count %d", n)
	}
	return &Array{bundles: make([]Bundle, n)}, nil
}

// Len returns the number of bundles
func (a *Array) Len() int { return len(a.bundles) }

// At returns bundle i for in-place update
func (a *Array) At(i int) *Bundle { return &a.bundles[i] }

// SetZero clears all bundles
func (a *Array) SetZero() {
	for i := range a.bundles {
		a.bundles[i].SetZero()
	}
}

// SetZeroAt clears bundle i
func (a *Array) SetZeroAt(i int) {
	a.bundles[i].SetZero()
}

// Channel copies channel c of every bundle into dst, growing dst if needed
func (a *Array) Channel(c Channel, dst []float64) []float64 {
	if cap(dst) < len(a.bundles) {
		dst = make([]float64, len(a.bundles))
	}
	dst = dst[:len(a.bundles)]
	for i := range a.bundles {
		dst[i] = a.bundles[i][c]
	}
	return dst
}

// SetChannel writes vals into channel c of every bundle
func (a *Array) SetChannel(c Channel, vals []float64) error {
	if len(vals) != len(a.bundles) {
		return fmt.Errorf("channel %s: got %d values for %d bundles", c, len(vals), len(a.bundles))
	}
	for i := range a.bundles {
		a.bundles[i][c] = vals[i]
	}
	return nil
}

// Derive recomputes the quotient channels of every bundle
func (a *Array) Derive() {
	for i := range a.bundles {
		a.bundles[i].Derive()
	}
}

// AddArray accumulates o into a element by element
func (a *Array) AddArray(o *Array) error {
	if o.Len() != a.Len() {
		return fmt.Errorf("array length mismatch: %d != %d", a.Len(), o.Len())
	}
	for i := range a.bundles {
		a.bundles[i].Add(&o.bundles[i])
	}
	return nil
}

// CopyFrom overwrites a with the content of o
func (a *Array) CopyFrom(o *Array) error {
	if o.Len() != a.Len() {
		return fmt.Errorf("array length mismatch: %d != %d", a.Len(), o.Len())
	}
	copy(a.bundles, o.bundles)
	return nil
}
