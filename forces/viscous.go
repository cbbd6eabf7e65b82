package forces

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/config"
	"github.com/notargets/FVLoads/flow"
	"github.com/notargets/FVLoads/mesh"
)

// QCRCoefficient scales the quadratic constitutive correction of the stress tensor
const QCRCoefficient = 0.3

// gasModel selects the wall thermal conductivity
type gasModel struct {
	compressible bool
	energy       bool
	qcr          bool
	cp           float64 // Specific heat at constant pressure, compressible only
	prandtl      float64
}

func newGasModel(cfg *config.Config) gasModel {
	g := gasModel{
		compressible: cfg.IsCompressible(),
		energy:       cfg.Flow.Energy,
		qcr:          cfg.Flow.QCR,
		prandtl:      cfg.Flow.PrandtlLam,
	}
	if g.compressible && cfg.Flow.Gamma > 1 {
		g.cp = cfg.Flow.Gamma / (cfg.Flow.Gamma - 1) * cfg.Flow.GasConstant
	}
	return g
}

// wallHeatFlux returns k grad(T).n for the unit normal n pointing into the flow
func (g gasModel) wallHeatFlux(st flow.State, p int, n []float64) float64 {
	var k, gradTn float64
	if g.compressible {
		k = g.cp * st.LaminarViscosity(p) / g.prandtl
	} else {
		k = st.ThermalConductivity(p)
	}
	if g.compressible || g.energy {
		gradTn = -floats.Dot(st.TemperatureGradient(p)[:len(n)], n)
	}
	return -k * gradTn
}

// stress holds the matrices of one viscous stress evaluation
type stress struct {
	nDim     int
	grad     *mat.Dense
	tau      *mat.Dense
	rot      *mat.Dense
	corr     *mat.Dense
	unit     *mat.VecDense
	traction *mat.VecDense
}

func newStress(nDim int) *stress {
	return &stress{
		nDim:     nDim,
		grad:     mat.NewDense(nDim, nDim, nil),
		tau:      mat.NewDense(nDim, nDim, nil),
		rot:      mat.NewDense(nDim, nDim, nil),
		corr:     mat.NewDense(nDim, nDim, nil),
		unit:     mat.NewVecDense(nDim, nil),
		traction: mat.NewVecDense(nDim, nil),
	}
}

// Traction returns Tau.n where Tau is the Newtonian stress of velocity gradient g,
// [i*NDim+j] = du_i/dx_j, with the optional quadratic constitutive correction
func (s *stress) Traction(g []float64, mu float64, n []float64, qcr bool) (t [3]float64) {
	nDim := s.nDim
	for i := 0; i < nDim; i++ {
		for j := 0; j < nDim; j++ {
			s.grad.Set(i, j, g[i*nDim+j])
		}
		s.unit.SetVec(i, n[i])
	}

	div := mat.Trace(s.grad)
	s.tau.Add(s.grad, s.grad.T())
	s.tau.Scale(mu, s.tau)
	for i := 0; i < nDim; i++ {
		s.tau.Set(i, i, s.tau.At(i, i)-2.0/3.0*mu*div)
	}

	if qcr {
		// O = (G - G^T)/|G|, correction_ij = (O.Tau)_ij + (O.Tau)_ji since Tau is symmetric
		den := math.Sqrt(math.Max(floats.Dot(g[:nDim*nDim], g[:nDim*nDim]), 1e-10))
		s.rot.Sub(s.grad, s.grad.T())
		s.rot.Scale(1/den, s.rot)
		s.corr.Mul(s.rot, s.tau)
		for i := 0; i < nDim; i++ {
			for j := 0; j < nDim; j++ {
				s.tau.Set(i, j, s.tau.At(i, j)-QCRCoefficient*(s.corr.At(i, j)+s.corr.At(j, i)))
			}
		}
	}

	s.traction.MulVec(s.tau, s.unit)
	for i := 0; i < nDim; i++ {
		t[i] = s.traction.AtVec(i)
	}
	return
}

// ViscousPass integrates the shear force and heat flux on viscous walls. Skin friction,
// y+ and heat flux are recorded for every vertex.
func (it *Integrator) ViscousPass(st flow.State) {
	ref := it.ref
	nDim := it.nDim
	gas := it.gas
	it.run(Viscous, func() vertexFunc {
		s := newStress(nDim)
		return func(iMarker, iVertex int, v *mesh.Vertex, counted bool, ld *load) {
			p := v.Point
			cf := it.cf.At(iMarker, iVertex)
			yPlus := it.yPlus.At(iMarker, iVertex)
			hf := it.heatFlux.At(iMarker, iVertex)

			area := floats.Norm(v.Normal[:nDim], 2)
			if area == 0 {
				clear(cf)
				yPlus[0], hf[0] = 0, 0
				return
			}
			var unit [3]float64
			for i := 0; i < nDim; i++ {
				unit[i] = v.Normal[i] / area
			}

			mu := st.LaminarViscosity(p)
			rho := st.Density(p)
			tauElem := s.Traction(st.VelocityGradient(p), mu, unit[:nDim], gas.qcr)

			tauNormal := floats.Dot(tauElem[:nDim], unit[:nDim])
			wallShear := 0.0
			for i := 0; i < nDim; i++ {
				tangent := tauElem[i] - tauNormal*unit[i]
				cf[i] = tangent / ref.DynamicPressure()
				wallShear += tangent * tangent
			}
			wallShear = math.Sqrt(wallShear)

			x := it.geom.Coord(p)
			yPlus[0] = 0
			if v.NormalNeighbor >= 0 && mu > 0 && rho > 0 {
				xn := it.geom.Coord(v.NormalNeighbor)
				dist := 0.0
				for i := 0; i < nDim; i++ {
					dist += (x[i] - xn[i]) * (x[i] - xn[i])
				}
				frictionVel := math.Sqrt(math.Abs(wallShear) / rho)
				yPlus[0] = math.Sqrt(dist) * frictionVel / (mu / rho)
			}

			hf[0] = gas.wallHeatFlux(st, p, unit[:nDim]) * ref.HeatFlux

			if !counted {
				return
			}
			axi := ref.AxiFactor(x)
			var f [3]float64
			for i := 0; i < nDim; i++ {
				f[i] = tauElem[i] * area * ref.Factor * axi
			}
			ld.setForce(f, x, it.origins[iMarker], nDim, ref.Length)
			ld.Heat = hf[0] * area
			ld.HeatPow = math.Pow(hf[0], coefficients.MaxHeatNorm)
		}
	})
}
