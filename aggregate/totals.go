package aggregate

import (
	"errors"

	"github.com/notargets/FVLoads/coefficients"
)

// ErrPassOrder is returned when contributions are added before the totals were reset
var ErrPassOrder = errors.New("totals must be reset by the pressure pass before other passes add to them")

// Totals is the running sum of the pass contributions of one solver iteration. The
// pressure pass resets it, then every pass, pressure included, adds its reduced
// all-bound and surface bundles.
type Totals struct {
	total     coefficients.Bundle
	surfaces  *coefficients.Array
	nearField float64
	open      bool
}

// NewTotals allocates totals for nSurfaces monitored surfaces
func NewTotals(nSurfaces int) (*Totals, error) {
	surfaces, err := coefficients.NewArray(nSurfaces)
	if err != nil {
		return nil, err
	}
	return &Totals{surfaces: surfaces}, nil
}

// Reset zeroes the totals and opens them for the passes of a new iteration
func (t *Totals) Reset() {
	t.total.SetZero()
	t.surfaces.SetZero()
	t.nearField = 0
	t.open = true
}

// Add accumulates the contribution of one pass
func (t *Totals) Add(h *Hierarchy) error {
	if !t.open {
		return ErrPassOrder
	}
	if err := t.surfaces.AddArray(h.Surfaces()); err != nil {
		return err
	}
	t.total.Add(h.AllBound())
	t.nearField += h.NearField()
	return nil
}

// Open reports whether passes may add to the totals
func (t *Totals) Open() bool { return t.open }

// Close marks the iteration as finished; further passes require a Reset
func (t *Totals) Close() { t.open = false }

// Total returns the sum over all passes
func (t *Totals) Total() *coefficients.Bundle { return &t.total }

// Surfaces returns the per surface sum over all passes
func (t *Totals) Surfaces() *coefficients.Array { return t.surfaces }

// NearField returns the total near-field objective
func (t *Totals) NearField() float64 { return t.nearField }
