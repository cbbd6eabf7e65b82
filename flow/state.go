package flow

import (
	"fmt"
)

// State supplies the per point flow quantities read by the boundary integrator
type State interface {
	Pressure(p int) float64
	Density(p int) float64
	// Velocity returns NDim components
	Velocity(p int) []float64
	LaminarViscosity(p int) float64
	ThermalConductivity(p int) float64
	// VelocityGradient returns NDim*NDim values, [i*NDim+j] = du_i/dx_j
	VelocityGradient(p int) []float64
	TemperatureGradient(p int) []float64
}

// PointState is the full primitive state of one point
type PointState struct {
	Temperature  float64
	Pressure     float64
	Density      float64
	Viscosity    float64
	Conductivity float64
	Velocity     [3]float64
}

// Field stores primitive variables and their gradients for every local point
type Field struct {
	NDim  int
	T     []float64 // Temperature
	P     []float64
	Rho   []float64
	Mu    []float64 // Laminar viscosity
	K     []float64 // Thermal conductivity
	U     []float64 // Velocity, NDim per point
	GradU []float64 // NDim*NDim per point
	GradT []float64 // NDim per point
}

var _ State = (*Field)(nil)

// NewField allocates a zero field
func NewField(nDim, nPoints int) (*Field, error) {
	if nDim != 2 && nDim != 3 {
		return nil, fmt.Errorf("field dimension must be 2 or 3, have %d", nDim)
	}
	if nPoints < 0 {
		return nil, fmt.Errorf("negative point count %d", nPoints)
	}
	return &Field{
		NDim:  nDim,
		T:     make([]float64, nPoints),
		P:     make([]float64, nPoints),
		Rho:   make([]float64, nPoints),
		Mu:    make([]float64, nPoints),
		K:     make([]float64, nPoints),
		U:     make([]float64, nPoints*nDim),
		GradU: make([]float64, nPoints*nDim*nDim),
		GradT: make([]float64, nPoints*nDim),
	}, nil
}

// NumPoints returns the number of points
func (f *Field) NumPoints() int { return len(f.T) }

func (f *Field) Pressure(p int) float64            { return f.P[p] }
func (f *Field) Density(p int) float64             { return f.Rho[p] }
func (f *Field) LaminarViscosity(p int) float64    { return f.Mu[p] }
func (f *Field) ThermalConductivity(p int) float64 { return f.K[p] }

func (f *Field) Velocity(p int) []float64 {
	return f.U[p*f.NDim : (p+1)*f.NDim]
}

func (f *Field) VelocityGradient(p int) []float64 {
	n := f.NDim * f.NDim
	return f.GradU[p*n : (p+1)*n]
}

func (f *Field) TemperatureGradient(p int) []float64 {
	return f.GradT[p*f.NDim : (p+1)*f.NDim]
}

// Set assigns the primitive state of point p
func (f *Field) Set(p int, s PointState) {
	f.T[p] = s.Temperature
	f.P[p] = s.Pressure
	f.Rho[p] = s.Density
	f.Mu[p] = s.Viscosity
	f.K[p] = s.Conductivity
	copy(f.U[p*f.NDim:(p+1)*f.NDim], s.Velocity[:f.NDim])
}

// Get returns the primitive state of point p
func (f *Field) Get(p int) (s PointState) {
	s.Temperature = f.T[p]
	s.Pressure = f.P[p]
	s.Density = f.Rho[p]
	s.Viscosity = f.Mu[p]
	s.Conductivity = f.K[p]
	copy(s.Velocity[:f.NDim], f.Velocity(p))
	return
}

// Stride is the number of packed primitive values per point
func (f *Field) Stride() int { return 5 + f.NDim }

// Pack copies the primitives into a point major buffer for halo exchange
func (f *Field) Pack(dst []float64) []float64 {
	stride := f.Stride()
	n := stride * f.NumPoints()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for p := 0; p < f.NumPoints(); p++ {
		s := f.Get(p)
		b := dst[p*stride : (p+1)*stride]
		b[0], b[1], b[2], b[3], b[4] = s.Temperature, s.Pressure, s.Density, s.Viscosity, s.Conductivity
		copy(b[5:], s.Velocity[:f.NDim])
	}
	return dst
}

// Unpack is the inverse of Pack
func (f *Field) Unpack(src []float64) error {
	stride := f.Stride()
	if len(src) != stride*f.NumPoints() {
		return fmt.Errorf("packed length %d, need %d", len(src), stride*f.NumPoints())
	}
	for p := 0; p < f.NumPoints(); p++ {
		b := src[p*stride : (p+1)*stride]
		s := PointState{Temperature: b[0], Pressure: b[1], Density: b[2], Viscosity: b[3], Conductivity: b[4]}
		copy(s.Velocity[:f.NDim], b[5:])
		f.Set(p, s)
	}
	return nil
}
