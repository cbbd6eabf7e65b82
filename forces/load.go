package forces

import (
	"math"

	"github.com/notargets/FVLoads/coefficients"
)

// load is the contribution of one boundary vertex, or the sum over a marker
type load struct {
	Force  [3]float64
	Moment [3]float64
	// Moments of the force taken at raw coordinates, used for the center of pressure
	MomentX, MomentY, MomentZ [3]float64
	NearField                 float64
	Heat                      float64 // heat flux times area
	HeatPow                   float64 // heat flux to the MaxHeatNorm power
}

// setForce stores f applied at x and its moments about origin, normalized by refLength
func (l *load) setForce(f [3]float64, x []float64, origin [3]float64, nDim int, refLength float64) {
	l.Force = f
	var d, c [3]float64
	for i := 0; i < nDim; i++ {
		c[i] = x[i]
		d[i] = x[i] - origin[i]
	}
	if nDim == 3 {
		l.Moment[0] = (f[2]*d[1] - f[1]*d[2]) / refLength
		l.MomentX[1] = -f[1] * c[2]
		l.MomentX[2] = f[2] * c[1]

		l.Moment[1] = (f[0]*d[2] - f[2]*d[0]) / refLength
		l.MomentY[2] = -f[2] * c[0]
		l.MomentY[0] = f[0] * c[2]
	}
	l.Moment[2] = (f[1]*d[0] - f[0]*d[1]) / refLength
	l.MomentZ[0] = -f[0] * c[1]
	l.MomentZ[1] = f[1] * c[0]
}

func (l *load) add(o *load) {
	for i := 0; i < 3; i++ {
		l.Force[i] += o.Force[i]
		l.Moment[i] += o.Moment[i]
		l.MomentX[i] += o.MomentX[i]
		l.MomentY[i] += o.MomentY[i]
		l.MomentZ[i] += o.MomentZ[i]
	}
	l.NearField += o.NearField
	l.Heat += o.Heat
	l.HeatPow += o.HeatPow
}

// store projects the summed marker load into b
func (l *load) store(b *coefficients.Bundle, ref Reference) {
	b.SetZero()
	cd, cl, csf := ProjectForce(l.Force, ref.NDim, ref.Alpha, ref.Beta)
	b.Set(coefficients.CD, cd)
	b.Set(coefficients.CL, cl)
	b.Set(coefficients.CFx, l.Force[0])
	b.Set(coefficients.CFy, l.Force[1])
	b.Set(coefficients.CMz, l.Moment[2])
	if ref.NDim == 2 {
		b.Set(coefficients.CoPx, l.MomentZ[1])
		b.Set(coefficients.CoPy, -l.MomentZ[0])
		b.Set(coefficients.CT, -l.Force[0])
	} else {
		b.Set(coefficients.CSF, csf)
		b.Set(coefficients.CFz, l.Force[2])
		b.Set(coefficients.CMx, l.Moment[0])
		b.Set(coefficients.CMy, l.Moment[1])
		b.Set(coefficients.CoPx, -l.MomentY[0])
		b.Set(coefficients.CoPz, l.MomentY[2])
		b.Set(coefficients.CT, -l.Force[2])
	}
	b.Set(coefficients.CQ, -l.Moment[2])
	b.Set(coefficients.HF, l.Heat)
	b.Set(coefficients.MaxHF, math.Pow(l.HeatPow, 1.0/coefficients.MaxHeatNorm))
	b.Derive()
}
