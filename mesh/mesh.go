package mesh

import (
	"errors"
	"fmt"

	"github.com/notargets/FVLoads/coloring"
)

// ErrDimension is returned for meshes that are neither 2D nor 3D
var ErrDimension = errors.New("mesh dimension must be 2 or 3")

// Vertex is one boundary element of a marker, the dual face of a boundary point
type Vertex struct {
	Point int
	// Normal is area weighted and points from the surface into the flow domain
	Normal [3]float64
	// NormalNeighbor is the first interior point off the wall, -1 when not available locally
	NormalNeighbor int
}

// Marker is a named group of boundary vertices sharing a boundary condition kind
type Marker struct {
	Tag      string
	Kind     Kind
	Vertices []Vertex
}

// Mesh is the median dual geometry of one partition
type Mesh struct {
	NDim    int
	Coords  []float64 // NDim values per point
	Domain  []bool    // true for points owned by this partition
	Volumes []float64 // Dual control volume per point
	Graph   *coloring.Graph
	// EdgeNormals holds NDim values per edge, area weighted, oriented from I to J
	EdgeNormals []float64
	Markers     []Marker
	// GlobalIndex maps local points to the undecomposed mesh
	GlobalIndex []int
}

// Validate checks array sizes and index ranges
func (m *Mesh) Validate() error {
	if m.NDim != 2 && m.NDim != 3 {
		return fmt.Errorf("%w: have %d", ErrDimension, m.NDim)
	}
	n := m.NumPoints()
	if len(m.Coords) != n*m.NDim {
		return fmt.Errorf("coordinate length %d for %d points of dimension %d", len(m.Coords), n, m.NDim)
	}
	if len(m.Volumes) != n {
		return fmt.Errorf("volume length %d for %d points", len(m.Volumes), n)
	}
	if m.GlobalIndex != nil && len(m.GlobalIndex) != n {
		return fmt.Errorf("global index length %d for %d points", len(m.GlobalIndex), n)
	}
	if m.Graph == nil {
		return fmt.Errorf("mesh has no connectivity graph")
	}
	if m.Graph.NumPoints != n {
		return fmt.Errorf("graph has %d points, mesh has %d", m.Graph.NumPoints, n)
	}
	if err := m.Graph.Validate(); err != nil {
		return err
	}
	if len(m.EdgeNormals) != m.Graph.NumEdges()*m.NDim {
		return fmt.Errorf("edge normal length %d for %d edges", len(m.EdgeNormals), m.Graph.NumEdges())
	}
	seen := make(map[string]bool, len(m.Markers))
	for iMarker, mk := range m.Markers {
		if seen[mk.Tag] {
			return fmt.Errorf("duplicate marker tag %q", mk.Tag)
		}
		seen[mk.Tag] = true
		for iVertex, v := range mk.Vertices {
			if v.Point < 0 || v.Point >= n {
				return fmt.Errorf("marker %d vertex %d: point %d out of range", iMarker, iVertex, v.Point)
			}
			if v.NormalNeighbor >= n {
				return fmt.Errorf("marker %d vertex %d: normal neighbor %d out of range", iMarker, iVertex, v.NormalNeighbor)
			}
		}
	}
	return nil
}

// NumPoints returns the number of local points, owned and halo
func (m *Mesh) NumPoints() int { return len(m.Domain) }

// NumOwned returns the number of points owned by this partition
func (m *Mesh) NumOwned() int {
	n := 0
	for _, d := range m.Domain {
		if d {
			n++
		}
	}
	return n
}

// Dim returns the spatial dimension
func (m *Mesh) Dim() int { return m.NDim }

// Coord returns the coordinates of point p
func (m *Mesh) Coord(p int) []float64 { return m.Coords[p*m.NDim : (p+1)*m.NDim] }

// Owned reports whether point p belongs to this partition
func (m *Mesh) Owned(p int) bool { return m.Domain[p] }

// Volume returns the dual volume of point p
func (m *Mesh) Volume(p int) float64 { return m.Volumes[p] }

// EdgeNormal returns the area weighted normal of edge iEdge
func (m *Mesh) EdgeNormal(iEdge int) []float64 {
	return m.EdgeNormals[iEdge*m.NDim : (iEdge+1)*m.NDim]
}

// MarkerList returns the boundary markers
func (m *Mesh) MarkerList() []Marker { return m.Markers }

// MarkerIndex returns the index of the marker with the given tag
func (m *Mesh) MarkerIndex(tag string) (int, bool) {
	for i, mk := range m.Markers {
		if mk.Tag == tag {
			return i, true
		}
	}
	return -1, false
}

// NumBoundaryVertices counts vertices over all markers
func (m *Mesh) NumBoundaryVertices() int {
	n := 0
	for _, mk := range m.Markers {
		n += len(mk.Vertices)
	}
	return n
}
