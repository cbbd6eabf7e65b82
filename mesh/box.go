package mesh

import (
	"fmt"

	"github.com/notargets/FVLoads/coloring"
)

// Face identifies one side of a box mesh
type Face uint8

const (
	XMin Face = iota
	XMax
	YMin
	YMax
	ZMin
	ZMax
)

var faceTags = [6]string{"xmin", "xmax", "ymin", "ymax", "zmin", "zmax"}

func (f Face) String() string { return faceTags[f] }

// Axis returns the coordinate axis normal to the face
func (f Face) Axis() int { return int(f) / 2 }

// IsMax is true for the faces at the upper end of their axis
func (f Face) IsMax() bool { return f%2 == 1 }

// FaceMarker sets the tag and boundary kind of a box face
type FaceMarker struct {
	Tag  string
	Kind Kind
}

// BoxSpec describes a structured point lattice on an axis aligned box
type BoxSpec struct {
	Dim    int
	N      [3]int     // Points per axis, at least 2 on every used axis
	Length [3]float64 // Box extent per axis
	Origin [3]float64
	Faces  [6]FaceMarker
}

// NewBoxSpec returns a box with far-field markers named after their faces
func NewBoxSpec(dim int, n [3]int, length [3]float64) BoxSpec {
	bs := BoxSpec{Dim: dim, N: n, Length: length}
	for f := XMin; f <= ZMax; f++ {
		bs.Faces[f] = FaceMarker{Tag: f.String(), Kind: FarField}
	}
	return bs
}

// NumPoints returns the lattice size
func (bs BoxSpec) NumPoints() int {
	n := 1
	for d := 0; d < bs.Dim; d++ {
		n *= bs.N[d]
	}
	return n
}

func (bs BoxSpec) validate() error {
	if bs.Dim != 2 && bs.Dim != 3 {
		return fmt.Errorf("%w: have %d", ErrDimension, bs.Dim)
	}
	for d := 0; d < bs.Dim; d++ {
		if bs.N[d] < 2 {
			return fmt.Errorf("axis %d needs at least 2 points, have %d", d, bs.N[d])
		}
		if bs.Length[d] <= 0 {
			return fmt.Errorf("axis %d length must be positive, have %v", d, bs.Length[d])
		}
	}
	return nil
}

// NewBox builds the median dual of a structured lattice. Interior dual volumes are the
// cell volume, boundary points get the clipped fraction, and the dual face of an edge spans
// the transverse half widths of its endpoints, so Green-Gauss gradients of linear fields
// are exact.
func NewBox(bs BoxSpec) (*Mesh, error) {
	if err := bs.validate(); err != nil {
		return nil, err
	}
	dim := bs.Dim
	var h [3]float64
	var istride [3]int
	istride[0] = 1
	for d := 0; d < dim; d++ {
		h[d] = bs.Length[d] / float64(bs.N[d]-1)
		if d > 0 {
			istride[d] = istride[d-1] * bs.N[d-1]
		}
	}
	nPoints := bs.NumPoints()
	m := &Mesh{
		NDim:        dim,
		Coords:      make([]float64, nPoints*dim),
		Domain:      make([]bool, nPoints),
		Volumes:     make([]float64, nPoints),
		GlobalIndex: make([]int, nPoints),
	}
	index := func(p int) (ijk [3]int) {
		for d := 0; d < dim; d++ {
			ijk[d] = (p / istride[d]) % bs.N[d]
		}
		return
	}
	// Dual half widths along each axis
	width := func(ijk [3]int, d int) float64 {
		if ijk[d] == 0 || ijk[d] == bs.N[d]-1 {
			return 0.5 * h[d]
		}
		return h[d]
	}
	transverse := func(ijk [3]int, axis int) float64 {
		a := 1.0
		for d := 0; d < dim; d++ {
			if d != axis {
				a *= width(ijk, d)
			}
		}
		return a
	}

	var edges []coloring.Edge
	for p := 0; p < nPoints; p++ {
		ijk := index(p)
		vol := 1.0
		for d := 0; d < dim; d++ {
			m.Coords[p*dim+d] = bs.Origin[d] + float64(ijk[d])*h[d]
			vol *= width(ijk, d)
		}
		m.Volumes[p] = vol
		m.Domain[p] = true
		m.GlobalIndex[p] = p
		for d := 0; d < dim; d++ {
			if ijk[d]+1 < bs.N[d] {
				edges = append(edges, coloring.Edge{I: p, J: p + istride[d]})
				normal := make([]float64, dim)
				normal[d] = transverse(ijk, d)
				m.EdgeNormals = append(m.EdgeNormals, normal...)
			}
		}
	}
	g, err := coloring.NewGraph(nPoints, edges)
	if err != nil {
		return nil, err
	}
	m.Graph = g

	for f := XMin; f <= Face(2*dim-1); f++ {
		axis := f.Axis()
		mk := Marker{Tag: bs.Faces[f].Tag, Kind: bs.Faces[f].Kind}
		for p := 0; p < nPoints; p++ {
			ijk := index(p)
			var v Vertex
			v.Point = p
			switch {
			case !f.IsMax() && ijk[axis] == 0:
				v.Normal[axis] = transverse(ijk, axis)
				v.NormalNeighbor = p + istride[axis]
			case f.IsMax() && ijk[axis] == bs.N[axis]-1:
				v.Normal[axis] = -transverse(ijk, axis)
				v.NormalNeighbor = p - istride[axis]
			default:
				continue
			}
			mk.Vertices = append(mk.Vertices, v)
		}
		m.Markers = append(m.Markers, mk)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("generated box mesh: %w", err)
	}
	return m, nil
}
