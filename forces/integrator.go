package forces

import (
	"fmt"

	"github.com/exascience/pargo/parallel"

	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/config"
	"github.com/notargets/FVLoads/mesh"
)

// Pass identifies one of the three boundary integrations
type Pass uint8

const (
	Pressure Pass = iota
	Momentum
	Viscous
	NumPasses
)

func (p Pass) String() string {
	switch p {
	case Pressure:
		return "pressure"
	case Momentum:
		return "momentum"
	case Viscous:
		return "viscous"
	default:
		return fmt.Sprintf("Pass(%d)", uint8(p))
	}
}

// Selects reports whether markers of kind k are integrated by p
func (p Pass) Selects(k mesh.Kind) bool {
	switch p {
	case Pressure:
		return k.IsPressureBoundary()
	case Momentum:
		return k.IsThroughFlow()
	case Viscous:
		return k.IsViscousWall()
	}
	return false
}

// Geometry is the boundary description read by the integrator. *mesh.Mesh implements it.
type Geometry interface {
	Dim() int
	MarkerList() []mesh.Marker
	Coord(p int) []float64
	// Owned is false for halo points, which are visualized but not integrated
	Owned(p int) bool
}

var _ Geometry = (*mesh.Mesh)(nil)

// vertexFunc evaluates one boundary vertex. It writes the visualization arrays for every
// vertex and fills ld only when counted is true.
type vertexFunc func(iMarker, iVertex int, v *mesh.Vertex, counted bool, ld *load)

// Integrator evaluates the per marker coefficients of the three boundary passes. The
// per marker storage is allocated once and rebuilt by every pass.
type Integrator struct {
	geom    Geometry
	ref     Reference
	gas     gasModel
	nDim    int
	threads int

	markers   []mesh.Marker
	monitored []bool
	origins   [][3]float64

	// Per vertex scratch, laid out like the visualization arrays
	offsets []int
	loads   []load

	coeffs    [NumPasses]*coefficients.Array
	nearField []float64

	cp, cf, yPlus, heatFlux *mesh.VertexArray
}

// NewIntegrator allocates the per marker and per vertex storage for geom. A marker is
// monitored when its tag appears in the monitoring list; its moments are taken about the
// origin of that entry. Other markers use the first origin.
func NewIntegrator(geom Geometry, cfg *config.Config) (*Integrator, error) {
	nDim := geom.Dim()
	ref, err := ReferenceFactor(cfg, nDim)
	if err != nil {
		return nil, err
	}
	markers := geom.MarkerList()
	it := &Integrator{
		geom:      geom,
		ref:       ref,
		gas:       newGasModel(cfg),
		nDim:      nDim,
		threads:   cfg.Threads(),
		markers:   markers,
		monitored: make([]bool, len(markers)),
		origins:   make([][3]float64, len(markers)),
		offsets:   make([]int, len(markers)+1),
		nearField: make([]float64, len(markers)),
		cp:        mesh.NewVertexArray(markers, 1),
		cf:        mesh.NewVertexArray(markers, nDim),
		yPlus:     mesh.NewVertexArray(markers, 1),
		heatFlux:  mesh.NewVertexArray(markers, 1),
	}
	for iMarker, mk := range markers {
		it.offsets[iMarker+1] = it.offsets[iMarker] + len(mk.Vertices)
		it.origins[iMarker] = cfg.Origin(0)
		if iMon, ok := cfg.MonitoringIndex(mk.Tag); ok {
			it.monitored[iMarker] = true
			it.origins[iMarker] = cfg.Origin(iMon)
		}
	}
	it.loads = make([]load, it.offsets[len(markers)])
	for p := range it.coeffs {
		if it.coeffs[p], err = coefficients.NewArray(len(markers)); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// SetZero clears every coefficient and visualization value
func (it *Integrator) SetZero() {
	for _, a := range it.coeffs {
		a.SetZero()
	}
	clear(it.nearField)
	it.cp.SetZero()
	it.cf.SetZero()
	it.yPlus.SetZero()
	it.heatFlux.SetZero()
}

// run evaluates the markers selected by p. Vertices are evaluated in parallel, each into
// its own scratch load, then summed serially in ascending vertex order so the result does
// not depend on the thread count. newKernel is called once per parallel range.
func (it *Integrator) run(p Pass, newKernel func() vertexFunc) {
	coeffs := it.coeffs[p]
	for iMarker := range it.markers {
		mk := &it.markers[iMarker]
		if !p.Selects(mk.Kind) {
			continue
		}
		coeffs.SetZeroAt(iMarker)
		if p == Pressure {
			it.nearField[iMarker] = 0
		}
		loads := it.loads[it.offsets[iMarker]:it.offsets[iMarker+1]]
		monitored := it.monitored[iMarker]
		if n := len(mk.Vertices); n > 0 {
			parallel.Range(0, n, it.threads, func(low, high int) {
				kernel := newKernel()
				for iVertex := low; iVertex < high; iVertex++ {
					ld := &loads[iVertex]
					*ld = load{}
					v := &mk.Vertices[iVertex]
					kernel(iMarker, iVertex, v, monitored && it.geom.Owned(v.Point), ld)
				}
			})
		}
		if !monitored {
			continue
		}
		var sum load
		for i := range loads {
			sum.add(&loads[i])
		}
		if mk.Kind == mesh.NearField {
			if p == Pressure {
				it.nearField[iMarker] = sum.NearField
			}
			continue
		}
		sum.store(coeffs.At(iMarker), it.ref)
	}
}

// Markers returns the per marker coefficients of pass p
func (it *Integrator) Markers(p Pass) *coefficients.Array { return it.coeffs[p] }

// NearField returns the per marker near-field objective of the last pressure pass
func (it *Integrator) NearField() []float64 { return it.nearField }

// PressureCoefficient returns Cp per boundary vertex, halo vertices included
func (it *Integrator) PressureCoefficient() *mesh.VertexArray { return it.cp }

// SkinFriction returns the NDim skin friction components per boundary vertex
func (it *Integrator) SkinFriction() *mesh.VertexArray { return it.cf }

// YPlus returns the nondimensional wall distance per boundary vertex
func (it *Integrator) YPlus() *mesh.VertexArray { return it.yPlus }

// HeatFlux returns the wall heat flux per boundary vertex
func (it *Integrator) HeatFlux() *mesh.VertexArray { return it.heatFlux }

// Reference returns the normalization in use
func (it *Integrator) Reference() Reference { return it.ref }

// MarkerList returns the markers being integrated
func (it *Integrator) MarkerList() []mesh.Marker { return it.markers }

// Monitored reports whether marker iMarker contributes to the coefficients
func (it *Integrator) Monitored(iMarker int) bool { return it.monitored[iMarker] }

// Origin returns the moment origin used for marker iMarker
func (it *Integrator) Origin(iMarker int) [3]float64 { return it.origins[iMarker] }
