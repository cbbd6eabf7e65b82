package forces

import (
	"fmt"
	"math"

	"github.com/notargets/FVLoads/config"
)

// Reference holds the normalization shared by every pass of one evaluation
type Reference struct {
	NDim int
	// Density and Velocity2 define the dynamic pressure 0.5*Density*Velocity2
	Density   float64
	Velocity2 float64
	// Factor is 1/(0.5*Density*Area*Velocity2)
	Factor      float64
	PressureInf float64
	DensityInf  float64
	Area        float64
	Length      float64
	HeatFlux    float64
	// Alpha and Beta are in radians
	Alpha, Beta  float64
	Axisymmetric bool
}

// ReferenceFactor selects the reference density and velocity for the flow regime and
// returns the resulting normalization. Compressible flow uses the freestream, or the
// motion Mach number on a moving grid. Incompressible flow uses the freestream or the
// user reference values.
func ReferenceFactor(cfg *config.Config, nDim int) (Reference, error) {
	if nDim != 2 && nDim != 3 {
		return Reference{}, fmt.Errorf("reference dimension must be 2 or 3, have %d", nDim)
	}
	ref := Reference{
		NDim:         nDim,
		PressureInf:  cfg.Freestream.Pressure,
		DensityInf:   cfg.Freestream.Density,
		Area:         cfg.Reference.Area,
		Length:       cfg.Reference.Length,
		HeatFlux:     cfg.Reference.HeatFlux,
		Alpha:        cfg.Alpha(),
		Beta:         cfg.Beta(),
		Axisymmetric: cfg.Flow.Axisymmetric,
	}

	vInf := cfg.FreestreamVelocity()
	freestreamVel2 := 0.0
	for i := 0; i < nDim; i++ {
		freestreamVel2 += vInf[i] * vInf[i]
	}

	switch {
	case cfg.IsCompressible() && cfg.Flow.DynamicGrid:
		soundSpeed := math.Sqrt(cfg.Flow.Gamma * cfg.Flow.GasConstant * cfg.Freestream.Temperature)
		ref.Density = cfg.Freestream.Density
		ref.Velocity2 = math.Pow(cfg.Flow.MachMotion*soundSpeed, 2)
	case !cfg.IsCompressible() && cfg.Flow.IncNondim == config.ReferenceValues:
		ref.Density = cfg.Flow.IncDensityRef
		ref.Velocity2 = cfg.Flow.IncVelocityRef * cfg.Flow.IncVelocityRef
	default:
		ref.Density = cfg.Freestream.Density
		ref.Velocity2 = freestreamVel2
	}

	ref.Factor = 1.0 / (0.5 * ref.Density * ref.Area * ref.Velocity2)
	if math.IsInf(ref.Factor, 0) || math.IsNaN(ref.Factor) || ref.Factor <= 0 {
		return Reference{}, fmt.Errorf("%w: reference dynamic pressure %g over area %g gives no finite force factor",
			config.ErrInvalid, 0.5*ref.Density*ref.Velocity2, ref.Area)
	}
	return ref, nil
}

// DynamicPressure returns 0.5*Density*Velocity2
func (r Reference) DynamicPressure() float64 {
	return 0.5 * r.Density * r.Velocity2
}

// AxiFactor returns 2*pi*y for axisymmetric cases and 1 otherwise
func (r Reference) AxiFactor(x []float64) float64 {
	if r.Axisymmetric {
		return 2.0 * math.Pi * x[1]
	}
	return 1.0
}

// ProjectForce rotates a body axis force into drag, lift and side force for the
// incidence angles alpha and beta. In 2D beta is ignored and the side force is zero.
func ProjectForce(f [3]float64, nDim int, alpha, beta float64) (cd, cl, csf float64) {
	sa, ca := math.Sincos(alpha)
	if nDim == 2 {
		cd = f[0]*ca + f[1]*sa
		cl = -f[0]*sa + f[1]*ca
		return
	}
	sb, cb := math.Sincos(beta)
	cd = f[0]*ca*cb + f[1]*sb + f[2]*sa*cb
	cl = -f[0]*sa + f[2]*ca
	csf = -f[0]*sb*ca + f[1]*cb - f[2]*sb*sa
	return
}
