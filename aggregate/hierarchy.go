package aggregate

import (
	"fmt"

	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/mesh"
)

// Hierarchy rolls the per marker bundles of one pass up into the monitored surfaces and
// the all-bound bundle of this partition
type Hierarchy struct {
	surfaceTags []string
	// surfaceOf is the monitored surface of each marker, -1 when unmonitored
	surfaceOf []int
	nearField []bool

	surfaces   *coefficients.Array
	allBound   coefficients.Bundle
	nfAllBound float64
}

// New maps markers onto the monitored surface tags. A marker belongs to the surface whose
// tag equals its own; markers without one are not aggregated.
func New(markers []mesh.Marker, surfaceTags []string) (*Hierarchy, error) {
	index := make(map[string]int, len(surfaceTags))
	for i, tag := range surfaceTags {
		if _, dup := index[tag]; dup {
			return nil, fmt.Errorf("duplicate monitored surface %q", tag)
		}
		index[tag] = i
	}
	surfaces, err := coefficients.NewArray(len(surfaceTags))
	if err != nil {
		return nil, err
	}
	h := &Hierarchy{
		surfaceTags: append([]string(nil), surfaceTags...),
		surfaceOf:   make([]int, len(markers)),
		nearField:   make([]bool, len(markers)),
		surfaces:    surfaces,
	}
	for iMarker, mk := range markers {
		h.surfaceOf[iMarker] = -1
		if s, ok := index[mk.Tag]; ok {
			h.surfaceOf[iMarker] = s
		}
		h.nearField[iMarker] = mk.Kind == mesh.NearField
	}
	return h, nil
}

// RollUp rebuilds the surface and all-bound bundles from the per marker bundles in
// ascending marker order. Near-field markers only add their objective, nearField may be
// nil for passes without one.
func (h *Hierarchy) RollUp(markers *coefficients.Array, nearField []float64) error {
	if markers.Len() != len(h.surfaceOf) {
		return fmt.Errorf("have %d marker bundles for %d markers", markers.Len(), len(h.surfaceOf))
	}
	if nearField != nil && len(nearField) != len(h.surfaceOf) {
		return fmt.Errorf("have %d near-field values for %d markers", len(nearField), len(h.surfaceOf))
	}
	h.surfaces.SetZero()
	h.allBound.SetZero()
	h.nfAllBound = 0
	for iMarker, s := range h.surfaceOf {
		if s < 0 {
			continue
		}
		if h.nearField[iMarker] {
			if nearField != nil {
				h.nfAllBound += nearField[iMarker]
			}
			continue
		}
		b := markers.At(iMarker)
		h.surfaces.At(s).Add(b)
		h.allBound.Add(b)
	}
	h.surfaces.Derive()
	h.allBound.Derive()
	return nil
}

// Surfaces returns one bundle per monitored surface tag
func (h *Hierarchy) Surfaces() *coefficients.Array { return h.surfaces }

// AllBound returns the sum over monitored, non near-field markers
func (h *Hierarchy) AllBound() *coefficients.Bundle { return &h.allBound }

// NearField returns the summed near-field objective
func (h *Hierarchy) NearField() float64 { return h.nfAllBound }

// SetNearField replaces the near-field objective, used after it has been reduced
func (h *Hierarchy) SetNearField(v float64) { h.nfAllBound = v }

// SurfaceTags returns the monitored surface tags
func (h *Hierarchy) SurfaceTags() []string { return h.surfaceTags }

// SurfaceOf returns the monitored surface of marker iMarker, or -1
func (h *Hierarchy) SurfaceOf(iMarker int) int { return h.surfaceOf[iMarker] }
