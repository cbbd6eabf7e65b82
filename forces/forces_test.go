package forces

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/config"
	"github.com/notargets/FVLoads/flow"
	"github.com/notargets/FVLoads/mesh"
)

// testConfig gives a unit force factor: rho = 2, |V| = 1, A = 1, p_inf = 0
func testConfig(tags ...string) *config.Config {
	cfg := config.Default()
	cfg.Freestream.Density = 2.0
	cfg.Freestream.Pressure = 0.0
	cfg.Freestream.Velocity = []float64{1.0, 0.0, 0.0}
	cfg.Monitoring = nil
	for _, tag := range tags {
		cfg.Monitoring = append(cfg.Monitoring, config.MonitoringConfig{Tag: tag, Origin: []float64{0, 0, 0}})
	}
	return cfg
}

func newGeometry(nDim int, points [][3]float64, owned []bool, markers ...mesh.Marker) *mesh.Mesh {
	m := &mesh.Mesh{NDim: nDim, Domain: owned, Markers: markers}
	for _, p := range points {
		m.Coords = append(m.Coords, p[:nDim]...)
	}
	return m
}

func newField(t *testing.T, nDim int, states ...flow.PointState) *flow.Field {
	f, err := flow.NewField(nDim, len(states))
	require.NoError(t, err)
	for p, s := range states {
		f.Set(p, s)
	}
	return f
}

func vertex(p int, normal ...float64) mesh.Vertex {
	v := mesh.Vertex{Point: p, NormalNeighbor: -1}
	copy(v.Normal[:], normal)
	return v
}

func TestReferenceFactor(t *testing.T) {
	// Test 1: compressible freestream
	cfg := testConfig()
	ref, err := ReferenceFactor(cfg, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ref.Factor, 1e-15)
	assert.InDelta(t, 1.0, ref.DynamicPressure(), 1e-15)

	// Test 2: moving grid uses the motion Mach number
	cfg.Flow.DynamicGrid = true
	cfg.Flow.MachMotion = 0.5
	ref, err = ReferenceFactor(cfg, 2)
	require.NoError(t, err)
	a2 := cfg.Flow.Gamma * cfg.Flow.GasConstant * cfg.Freestream.Temperature
	assert.InDelta(t, 0.25*a2, ref.Velocity2, 1e-9)

	// Test 3: incompressible reference values
	cfg = testConfig()
	cfg.Flow.Regime = config.Incompressible
	cfg.Flow.IncNondim = config.ReferenceValues
	cfg.Flow.IncDensityRef = 4.0
	cfg.Flow.IncVelocityRef = 2.0
	ref, err = ReferenceFactor(cfg, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/(0.5*4.0*4.0), ref.Factor, 1e-15)

	// Test 4: no dynamic pressure
	cfg = testConfig()
	cfg.Freestream.Velocity = []float64{0, 0, 5}
	_, err = ReferenceFactor(cfg, 2)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = ReferenceFactor(testConfig(), 4)
	assert.Error(t, err)
}

func TestProjectForce_AxisConvention(t *testing.T) {
	cd, cl, csf := ProjectForce([3]float64{1, 0, 0}, 2, 0, 0)
	assert.InDelta(t, 1.0, cd, 1e-15)
	assert.InDelta(t, 0.0, cl, 1e-15)
	assert.Equal(t, 0.0, csf)

	cd, cl, _ = ProjectForce([3]float64{1, 0, 0}, 2, math.Pi/2, 0)
	assert.InDelta(t, 0.0, cd, 1e-15)
	assert.InDelta(t, -1.0, cl, 1e-15)

	// 3D: sideslip turns a +y force into drag and side force
	cd, cl, csf = ProjectForce([3]float64{0, 1, 0}, 3, 0, math.Pi/6)
	assert.InDelta(t, 0.5, cd, 1e-15)
	assert.InDelta(t, 0.0, cl, 1e-15)
	assert.InDelta(t, math.Sqrt(3)/2, csf, 1e-15)
}

func TestPressurePass_UnitForce(t *testing.T) {
	// A unit overpressure on a face whose normal points to -x pushes the body along +x
	geom := newGeometry(2, [][3]float64{{0, 2, 0}}, []bool{true},
		mesh.Marker{Tag: "wall", Kind: mesh.EulerWall, Vertices: []mesh.Vertex{vertex(0, -1, 0)}})
	st := newField(t, 2, flow.PointState{Pressure: 1.0, Density: 1.0})

	for _, tc := range []struct {
		aoa    float64
		cd, cl float64
	}{
		{0, 1, 0},
		{90, 0, -1},
	} {
		cfg := testConfig("wall")
		cfg.Flow.AoA = tc.aoa
		it, err := NewIntegrator(geom, cfg)
		require.NoError(t, err)
		it.PressurePass(st)

		b := it.Markers(Pressure).At(0)
		assert.InDeltaf(t, tc.cd, b.Get(coefficients.CD), 1e-14, "CD at AoA %v", tc.aoa)
		assert.InDeltaf(t, tc.cl, b.Get(coefficients.CL), 1e-14, "CL at AoA %v", tc.aoa)
		assert.InDelta(t, 1.0, b.Get(coefficients.CFx), 1e-15)
		assert.InDelta(t, -1.0, b.Get(coefficients.CT), 1e-15)
		// Moment of +x force at y = 2 about the origin
		assert.InDelta(t, -2.0, b.Get(coefficients.CMz), 1e-15)
		assert.InDelta(t, 2.0, b.Get(coefficients.CQ), 1e-15)
		cop := b.CenterOfPressure(2)
		assert.InDelta(t, 2.0, cop[1], 1e-12)
		assert.InDelta(t, 1.0, it.PressureCoefficient().At(0, 0)[0], 1e-15)
	}
}

func TestPressurePass_HaloExclusion(t *testing.T) {
	geom := newGeometry(2, [][3]float64{{0, 0, 0}, {1, 0, 0}}, []bool{true, false},
		mesh.Marker{Tag: "wall", Kind: mesh.EulerWall, Vertices: []mesh.Vertex{
			vertex(0, 0, 1), vertex(1, 0, 1),
		}})
	it, err := NewIntegrator(geom, testConfig("wall"))
	require.NoError(t, err)

	var first coefficients.Bundle
	for i, haloPressure := range []float64{0.0, 3.0, -7.5} {
		st := newField(t, 2,
			flow.PointState{Pressure: 1.5, Density: 1},
			flow.PointState{Pressure: haloPressure, Density: 1})
		it.PressurePass(st)
		b := *it.Markers(Pressure).At(0)
		if i == 0 {
			first = b
		} else if b != first {
			t.Errorf("halo pressure %v changed the integrated bundle", haloPressure)
		}
		// The halo vertex is still visualized
		assert.InDelta(t, haloPressure, it.PressureCoefficient().At(0, 1)[0], 1e-15)
	}
	assert.InDelta(t, -1.5, first.Get(coefficients.CFy), 1e-15)
}

func TestPressurePass_Additivity(t *testing.T) {
	points := [][3]float64{{0.1, 0.2, 0.3}, {1.0, -0.5, 2.0}, {-1.2, 0.7, 0.4}}
	set1 := []mesh.Vertex{vertex(0, 0.2, -0.3, 0.9)}
	set2 := []mesh.Vertex{vertex(1, -0.4, 0.1, 0.2), vertex(2, 0.5, 0.5, -0.1)}
	geom := newGeometry(3, points, []bool{true, true, true},
		mesh.Marker{Tag: "a", Kind: mesh.EulerWall, Vertices: set1},
		mesh.Marker{Tag: "b", Kind: mesh.HeatFluxWall, Vertices: set2},
		mesh.Marker{Tag: "ab", Kind: mesh.EulerWall, Vertices: append(append([]mesh.Vertex{}, set1...), set2...)},
	)
	cfg := testConfig("a", "b", "ab")
	cfg.Flow.AoA = 10
	cfg.Flow.AoS = 5
	it, err := NewIntegrator(geom, cfg)
	require.NoError(t, err)
	it.PressurePass(newField(t, 3,
		flow.PointState{Pressure: 1.3, Density: 1},
		flow.PointState{Pressure: -0.4, Density: 1},
		flow.PointState{Pressure: 2.2, Density: 1}))

	sum := *it.Markers(Pressure).At(0)
	sum.Add(it.Markers(Pressure).At(1))
	whole := it.Markers(Pressure).At(2)
	for _, c := range coefficients.AdditiveChannels() {
		assert.InDeltaf(t, whole.Get(c), sum.Get(c), 1e-13, "channel %v", c)
	}
}

func TestPressurePass_MonitoringAndNearField(t *testing.T) {
	geom := newGeometry(2, [][3]float64{{0, 0, 0}, {1, 0, 0}}, []bool{true, true},
		mesh.Marker{Tag: "wall", Kind: mesh.EulerWall, Vertices: []mesh.Vertex{vertex(0, 0, 1)}},
		mesh.Marker{Tag: "nf", Kind: mesh.NearField, Vertices: []mesh.Vertex{vertex(1, 0, 2)}},
		mesh.Marker{Tag: "sym", Kind: mesh.Symmetry, Vertices: []mesh.Vertex{vertex(1, 0, 1)}},
	)
	it, err := NewIntegrator(geom, testConfig("nf"))
	require.NoError(t, err)
	it.PressurePass(newField(t, 2,
		flow.PointState{Pressure: 2, Density: 1},
		flow.PointState{Pressure: 3, Density: 1}))

	// Test 1: unmonitored wall has no coefficients but is visualized
	assert.Equal(t, coefficients.Bundle{}, *it.Markers(Pressure).At(0))
	assert.InDelta(t, 2.0, it.PressureCoefficient().At(0, 0)[0], 1e-15)

	// Test 2: near-field only reports its objective, 0.5*dp^2*n_y
	assert.Equal(t, coefficients.Bundle{}, *it.Markers(Pressure).At(1))
	assert.InDelta(t, 0.5*9*2, it.NearField()[1], 1e-15)

	// Test 3: symmetry planes are not integrated
	assert.Equal(t, 0.0, it.PressureCoefficient().At(2, 0)[0])

	it.SetZero()
	assert.Equal(t, 0.0, it.NearField()[1])
	for iMarker := 0; iMarker < 3; iMarker++ {
		assert.Equal(t, coefficients.Bundle{}, *it.Markers(Pressure).At(iMarker))
	}
}

func TestMomentumPass(t *testing.T) {
	// Outflow through a face at x = 1 whose normal points back into the domain
	geom := newGeometry(2, [][3]float64{{1, 0, 0}}, []bool{true},
		mesh.Marker{Tag: "wall", Kind: mesh.EulerWall, Vertices: []mesh.Vertex{vertex(0, -1, 0)}},
		mesh.Marker{Tag: "out", Kind: mesh.Outlet, Vertices: []mesh.Vertex{vertex(0, -2, 0)}},
	)
	it, err := NewIntegrator(geom, testConfig("wall", "out"))
	require.NoError(t, err)
	st := newField(t, 2, flow.PointState{Pressure: 0, Density: 1.5, Velocity: [3]float64{2, 1, 0}})
	it.MomentumPass(st)

	// massflow = -n.u*rho = 6, F = massflow*u
	b := it.Markers(Momentum).At(1)
	assert.InDelta(t, 12.0, b.Get(coefficients.CFx), 1e-14)
	assert.InDelta(t, 6.0, b.Get(coefficients.CFy), 1e-14)
	assert.InDelta(t, 6.0, b.Get(coefficients.CMz), 1e-14)
	// Walls are not part of the momentum pass
	assert.Equal(t, coefficients.Bundle{}, *it.Markers(Momentum).At(0))
}

func couetteCase(t *testing.T, qcr bool) (*Integrator, *flow.Field) {
	t.Helper()
	geom := newGeometry(2, [][3]float64{{0, 0, 0}, {0, 0.1, 0}}, []bool{true, true},
		mesh.Marker{Tag: "wall", Kind: mesh.HeatFluxWall, Vertices: []mesh.Vertex{
			{Point: 0, Normal: [3]float64{0, 1, 0}, NormalNeighbor: 1},
		}})
	cfg := testConfig("wall")
	cfg.Flow.QCR = qcr
	it, err := NewIntegrator(geom, cfg)
	require.NoError(t, err)
	st := newField(t, 2,
		flow.PointState{Density: 2, Viscosity: 0.5},
		flow.PointState{Density: 2, Viscosity: 0.5})
	// du/dy = 2, dT/dy = 3
	st.GradU[0*2+1] = 2
	st.GradT[1] = 3
	return it, st
}

func TestViscousPass_Couette(t *testing.T) {
	it, st := couetteCase(t, false)
	it.ViscousPass(st)

	cf := it.SkinFriction().At(0, 0)
	assert.InDeltaSlicef(t, []float64{1, 0}, cf, 1e-14, "skin friction %v", cf)

	// y+ = d*sqrt(tau_w/rho)/(mu/rho)
	assert.InDelta(t, 0.1*math.Sqrt(0.5)/0.25, it.YPlus().At(0, 0)[0], 1e-14)

	cfg := testConfig()
	k := cfg.Flow.Gamma / (cfg.Flow.Gamma - 1) * cfg.Flow.GasConstant * 0.5 / cfg.Flow.PrandtlLam
	assert.InDelta(t, 3*k, it.HeatFlux().At(0, 0)[0], 1e-9)

	b := it.Markers(Viscous).At(0)
	assert.InDelta(t, 1.0, b.Get(coefficients.CD), 1e-14)
	assert.InDelta(t, 0.0, b.Get(coefficients.CL), 1e-14)
	assert.InDelta(t, 3*k, b.Get(coefficients.HF), 1e-9)
	assert.InDelta(t, 3*k, b.Get(coefficients.MaxHF), 1e-8)
}

func TestViscousPass_QCR(t *testing.T) {
	// Pure shear: the correction adds a wall normal stress of 0.6 and leaves the shear
	it, st := couetteCase(t, true)
	it.ViscousPass(st)

	assert.InDeltaSlice(t, []float64{1, 0}, it.SkinFriction().At(0, 0), 1e-14)
	b := it.Markers(Viscous).At(0)
	assert.InDelta(t, 1.0, b.Get(coefficients.CFx), 1e-14)
	assert.InDelta(t, 0.6, b.Get(coefficients.CFy), 1e-14)
}

func TestViscousPass_MaxHeatFluxNorm(t *testing.T) {
	geom := newGeometry(2, [][3]float64{{0, 0, 0}, {1, 0, 0}}, []bool{true, true},
		mesh.Marker{Tag: "wall", Kind: mesh.IsothermalWall, Vertices: []mesh.Vertex{
			vertex(0, 0, 1), vertex(1, 0, 1),
		}})
	cfg := testConfig("wall")
	cfg.Flow.Regime = config.Incompressible
	it, err := NewIntegrator(geom, cfg)
	require.NoError(t, err)
	st := newField(t, 2,
		flow.PointState{Density: 1, Viscosity: 1, Conductivity: 1},
		flow.PointState{Density: 1, Viscosity: 1, Conductivity: 1})
	st.GradT[1] = 3
	st.GradT[3] = 4
	it.ViscousPass(st)

	b := it.Markers(Viscous).At(0)
	assert.InDelta(t, 7.0, b.Get(coefficients.HF), 1e-14)
	assert.InDelta(t, math.Pow(math.Pow(3, 8)+math.Pow(4, 8), 1.0/8), b.Get(coefficients.MaxHF), 1e-12)
	assert.InDelta(t, 4.04799, b.Get(coefficients.MaxHF), 1e-5)

	// Without the energy equation the incompressible temperature gradient is ignored
	cfg.Flow.Energy = false
	it, err = NewIntegrator(geom, cfg)
	require.NoError(t, err)
	it.ViscousPass(st)
	assert.Equal(t, 0.0, it.Markers(Viscous).At(0).Get(coefficients.HF))
}

func TestViscousPass_ZeroArea(t *testing.T) {
	geom := newGeometry(3, [][3]float64{{0, 0, 0}}, []bool{true},
		mesh.Marker{Tag: "wall", Kind: mesh.HeatFluxWall, Vertices: []mesh.Vertex{vertex(0)}})
	it, err := NewIntegrator(geom, testConfig("wall"))
	require.NoError(t, err)
	st := newField(t, 3, flow.PointState{Density: 1, Viscosity: 1})
	for i := range st.GradU {
		st.GradU[i] = float64(i + 1)
	}
	it.ViscousPass(st)
	b := it.Markers(Viscous).At(0)
	for c := coefficients.Channel(0); c < coefficients.NumChannels; c++ {
		if math.IsNaN(b.Get(c)) || b.Get(c) != 0 {
			t.Errorf("channel %v = %v, want 0", c, b.Get(c))
		}
	}
}

func TestPasses_ThreadCountIndependent(t *testing.T) {
	n := 2000
	points := make([][3]float64, n)
	owned := make([]bool, n)
	vertices := make([]mesh.Vertex, n)
	states := make([]flow.PointState, n)
	for i := 0; i < n; i++ {
		s := float64(i) / float64(n)
		points[i] = [3]float64{math.Cos(2 * math.Pi * s), math.Sin(2 * math.Pi * s), 0.1 * s}
		owned[i] = i%7 != 0
		vertices[i] = vertex(i, -points[i][0], -points[i][1], 0.01)
		states[i] = flow.PointState{Pressure: 1 + math.Sin(6*math.Pi*s), Density: 1, Viscosity: 1e-3,
			Velocity: [3]float64{1, 0.1, 0}}
	}
	geom := newGeometry(3, points, owned,
		mesh.Marker{Tag: "wall", Kind: mesh.EulerWall, Vertices: vertices})
	st := newField(t, 3, states...)

	var results []coefficients.Bundle
	for _, threads := range []int{1, 3, 8} {
		cfg := testConfig("wall")
		cfg.Parallel.Threads = threads
		it, err := NewIntegrator(geom, cfg)
		require.NoError(t, err)
		it.PressurePass(st)
		results = append(results, *it.Markers(Pressure).At(0))
	}
	// Serial summation in vertex order makes the sums bit identical
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], results[2])
}
