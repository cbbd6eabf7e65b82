package forces

import (
	"github.com/notargets/FVLoads/flow"
	"github.com/notargets/FVLoads/mesh"
)

// PressurePass integrates the pressure force on walls, near-field and through-flow
// markers. Cp is recorded for every vertex; near-field markers only report the quadratic
// pressure objective.
func (it *Integrator) PressurePass(st flow.State) {
	ref := it.ref
	nDim := it.nDim
	it.run(Pressure, func() vertexFunc {
		return func(iMarker, iVertex int, v *mesh.Vertex, counted bool, ld *load) {
			dp := st.Pressure(v.Point) - ref.PressureInf
			it.cp.At(iMarker, iVertex)[0] = dp * ref.Factor * ref.Area
			if !counted {
				return
			}
			x := it.geom.Coord(v.Point)
			ld.NearField = 0.5 * dp * dp * v.Normal[nDim-1]

			// The normal points into the flow, the pressure pushes against it
			axi := ref.AxiFactor(x)
			var f [3]float64
			for i := 0; i < nDim; i++ {
				f[i] = -dp * v.Normal[i] * ref.Factor * axi
			}
			ld.setForce(f, x, it.origins[iMarker], nDim, ref.Length)
		}
	})
}

// MomentumPass integrates the momentum flux through inlets, outlets, actuator disks and
// engine boundaries
func (it *Integrator) MomentumPass(st flow.State) {
	ref := it.ref
	nDim := it.nDim
	it.run(Momentum, func() vertexFunc {
		return func(iMarker, iVertex int, v *mesh.Vertex, counted bool, ld *load) {
			if !counted {
				return
			}
			p := v.Point
			x := it.geom.Coord(p)
			rho := st.Density(p)
			u := st.Velocity(p)
			massFlow := 0.0
			for i := 0; i < nDim; i++ {
				massFlow -= v.Normal[i] * u[i] * rho
			}
			axi := ref.AxiFactor(x)
			var f [3]float64
			for i := 0; i < nDim; i++ {
				f[i] = massFlow * u[i] * ref.Factor * axi
			}
			ld.setForce(f, x, it.origins[iMarker], nDim, ref.Length)
		}
	})
}
