package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/config"
	"github.com/notargets/FVLoads/flow"
	"github.com/notargets/FVLoads/mesh"
	"github.com/notargets/FVLoads/solver"
)

func evaluatedSolver(t *testing.T) *solver.Solver {
	t.Helper()
	bs := mesh.NewBoxSpec(2, [3]int{5, 4, 1}, [3]float64{1, 1, 0})
	bs.Faces[mesh.YMin] = mesh.FaceMarker{Tag: "wall", Kind: mesh.HeatFluxWall}
	m, err := mesh.NewBox(bs)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Parallel.Threads = 1
	s, err := solver.New(m, cfg, nil, solver.Options{})
	require.NoError(t, err)
	require.NoError(t, s.Setup())

	f, err := flow.NewField(m.NDim, m.NumPoints())
	require.NoError(t, err)
	f.Fill(m, func(x []float64) flow.PointState {
		return flow.PointState{
			Temperature: 300 + 10*x[1],
			Pressure:    101325 - 200*x[0],
			Density:     1.2,
			Viscosity:   1.8e-5,
			Velocity:    [3]float64{100 * x[1], 0, 0},
		}
	})
	require.NoError(t, flow.GreenGauss(m, s.Executor(), f))
	require.NoError(t, s.EvaluateForces(f))
	return s
}

func TestNewFromSolver(t *testing.T) {
	s := evaluatedSolver(t)
	r := New(s, "plate")

	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 1, r.Ranks)
	assert.Equal(t, 2, r.Dim)
	assert.Equal(t, "colored", r.Coloring.Strategy)
	require.Len(t, r.Passes, 3)
	assert.Equal(t, "pressure", r.Passes[0].Name)
	require.Len(t, r.Surfaces, 1)
	assert.Equal(t, "wall", r.Surfaces[0].Tag)
	assert.Equal(t, s.Total().Get(coefficients.CD), r.Total.Get(coefficients.CD))
	assert.Len(t, r.Total, int(coefficients.NumChannels))
}

func TestYAMLRoundTrip(t *testing.T) {
	r := New(evaluatedSolver(t), "plate")

	var buf bytes.Buffer
	require.NoError(t, r.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "run_id: "+r.RunID)
	assert.Contains(t, buf.String(), "all_bound:")

	got, err := ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, got.RunID)
	assert.True(t, r.Created.Equal(got.Created))
	assert.Equal(t, r.Coloring, got.Coloring)
	assert.Equal(t, r.Total, got.Total)
	assert.Equal(t, r.Surfaces, got.Surfaces)
}

func TestReadYAMLRejectsBadRunID(t *testing.T) {
	_, err := ReadYAML(strings.NewReader("run_id: nope\nranks: 1\n"))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	r := &Report{
		RunID:    uuid.NewString(),
		Dim:      2,
		Ranks:    2,
		Coloring: Coloring{Strategy: "reducer", Colors: 1, Efficiency: 0.25, MinEfficiency: 0.25, ReducerRanks: 2},
		Passes: []Pass{
			{Name: "pressure", AllBound: Coefficients{"CD": 0.5, "CL": 1.25}},
		},
		Surfaces: []Surface{{Tag: "wing", Coefficients: Coefficients{"CD": 0.5}}},
		Total:    Coefficients{"CD": 0.5, "CL": 1.25},
	}
	out := r.Render()
	for _, want := range []string{"CD", "CMz", "pressure", "total", "wing", "1.25", "2 rank(s) on the reducer"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "CSF")
	assert.NotContains(t, out, "near-field")

	r.Dim = 3
	assert.Contains(t, r.Render(), "CSF")
}
