package flow

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/FVLoads/coloring"
	"github.com/notargets/FVLoads/mesh"
)

// GreenGauss computes the temperature and velocity gradients of f on m. The edge loop runs
// on x, so the point indexed residual writes follow the executor's coloring or reducer
// discipline. Boundary dual faces close the control volumes of marker points.
func GreenGauss(m *mesh.Mesh, x *coloring.Executor, f *Field) error {
	if f.NDim != m.NDim || f.NumPoints() != m.NumPoints() {
		return fmt.Errorf("field (%d points, dim %d) does not match mesh (%d points, dim %d)",
			f.NumPoints(), f.NDim, m.NumPoints(), m.NDim)
	}
	dim := m.NDim
	nVar := 1 + dim
	block := nVar * dim
	grad := make([]float64, m.NumPoints()*block)

	primitive := func(p, v int) float64 {
		if v == 0 {
			return f.T[p]
		}
		return f.U[p*dim+v-1]
	}

	err := x.Accumulate(block, grad, func(iEdge int, e coloring.Edge, out []float64) {
		n := m.EdgeNormal(iEdge)
		for v := 0; v < nVar; v++ {
			face := 0.5 * (primitive(e.I, v) + primitive(e.J, v))
			floats.AddScaled(out[v*dim:(v+1)*dim], face, n)
		}
	})
	if err != nil {
		return err
	}

	for _, mk := range m.Markers {
		for _, vtx := range mk.Vertices {
			p := vtx.Point
			for v := 0; v < nVar; v++ {
				// Marker normals point into the domain
				floats.AddScaled(grad[p*block+v*dim:p*block+(v+1)*dim], -primitive(p, v), vtx.Normal[:dim])
			}
		}
	}

	for p := 0; p < m.NumPoints(); p++ {
		g := grad[p*block : (p+1)*block]
		vol := m.Volume(p)
		if vol > 0 {
			floats.Scale(1/vol, g)
		}
		copy(f.TemperatureGradient(p), g[:dim])
		copy(f.VelocityGradient(p), g[dim:])
	}
	return nil
}
