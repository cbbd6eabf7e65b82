package flow

import (
	"github.com/notargets/FVLoads/mesh"
)

// Fill sets every point of f from an analytic state evaluated at the point coordinates
func (f *Field) Fill(m *mesh.Mesh, fn func(x []float64) PointState) {
	for p := 0; p < m.NumPoints(); p++ {
		f.Set(p, fn(m.Coord(p)))
	}
}
