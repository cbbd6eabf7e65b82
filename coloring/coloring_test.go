package coloring

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomGraph builds a connected-ish random graph without duplicate edges
func randomGraph(t *testing.T, nPoints, nEdges int, seed int64) *Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	type key struct{ a, b int }
	seen := make(map[key]bool)
	edges := make([]Edge, 0, nEdges)
	for i := 1; i < nPoints && len(edges) < nEdges; i++ {
		j := rng.Intn(i)
		seen[key{j, i}] = true
		edges = append(edges, Edge{I: j, J: i})
	}
	for len(edges) < nEdges {
		a, b := rng.Intn(nPoints), rng.Intn(nPoints)
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		if seen[key{a, b}] {
			continue
		}
		seen[key{a, b}] = true
		edges = append(edges, Edge{I: a, J: b})
	}
	g, err := NewGraph(nPoints, edges)
	require.NoError(t, err)
	return g
}

// gridGraph is the edge graph of an nx by ny structured point lattice
func gridGraph(t *testing.T, nx, ny int) *Graph {
	t.Helper()
	var edges []Edge
	id := func(i, j int) int { return j*nx + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if i+1 < nx {
				edges = append(edges, Edge{I: id(i, j), J: id(i+1, j)})
			}
			if j+1 < ny {
				edges = append(edges, Edge{I: id(i, j), J: id(i, j+1)})
			}
		}
	}
	g, err := NewGraph(nx*ny, edges)
	require.NoError(t, err)
	return g
}

func TestGraphValidate(t *testing.T) {
	_, err := NewGraph(3, []Edge{{0, 1}, {1, 3}})
	assert.Error(t, err)
	_, err = NewGraph(3, []Edge{{2, 2}})
	assert.Error(t, err)
	g, err := NewGraph(3, []Edge{{0, 1}, {1, 2}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {0, 1}, {1}}, g.PointEdges())
	assert.Equal(t, 2, g.MaxDegree())
}

func TestColoringSafety(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		g := randomGraph(t, 200, 800, seed)
		wp, err := WelshPowell(g)
		require.NoError(t, err)
		for name, c := range map[string]*Coloring{
			"greedy":       Greedy(g),
			"welsh-powell": wp,
		} {
			if err := c.Validate(g); err != nil {
				t.Fatalf("seed %d %s: %v", seed, name, err)
			}
			assert.Equal(t, g.NumEdges(), c.NumEdges())
			// Vizing bound for first fit is 2*Delta-1
			assert.LessOrEqual(t, c.NumColors(), 2*g.MaxDegree()-1, name)
		}
	}
}

func TestNaturalColoringIsUnsafe(t *testing.T) {
	g := gridGraph(t, 4, 4)
	err := Natural(g).Validate(g)
	assert.True(t, errors.Is(err, ErrUnsafeColoring))
}

func TestEmptyGraph(t *testing.T) {
	g, err := NewGraph(5, nil)
	require.NoError(t, err)
	wp, err := WelshPowell(g)
	require.NoError(t, err)
	for _, c := range []*Coloring{Greedy(g), wp} {
		assert.Equal(t, 1, c.NumColors())
		assert.Empty(t, c.Classes[0])
		assert.Equal(t, 1.0, c.Efficiency(8, DefaultGroupSize))
	}
	d, err := Schedule(g, DefaultOptions(8))
	require.NoError(t, err)
	assert.Equal(t, Colored, d.Strategy)
	assert.Equal(t, 1.0, d.Efficiency)
}

func TestEfficiencyBounds(t *testing.T) {
	g := randomGraph(t, 500, 3000, 7)
	c := Greedy(g)
	for _, threads := range []int{1, 2, 3, 8, 64} {
		for _, gs := range []int{1, 16, 512} {
			eff := c.Efficiency(threads, gs)
			assert.Greater(t, eff, 0.0)
			assert.LessOrEqual(t, eff, 1.0)
		}
	}
	assert.Equal(t, 1.0, c.Efficiency(1, 512))
	// Two classes of 4 and 2 groups on 4 threads take 2 rounds for 6 groups
	c2 := &Coloring{Classes: [][]int{{0, 1, 2, 3}, {4, 5}}}
	assert.InDelta(t, 6.0/8.0, c2.Efficiency(4, 1), 1e-15)
}

func TestChunks(t *testing.T) {
	chunks := Chunks([]int{0, 1, 2, 3, 4}, 2)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4}}, chunks)
	assert.Empty(t, Chunks(nil, 2))
}

func TestScheduleDecisions(t *testing.T) {
	g := gridGraph(t, 40, 40)

	opts := DefaultOptions(4)
	opts.GroupSize = 8
	d, err := Schedule(g, opts)
	require.NoError(t, err)
	assert.Equal(t, Colored, d.Strategy)
	assert.GreaterOrEqual(t, d.Efficiency, DefaultEfficiencyThreshold)
	require.NoError(t, d.Coloring.Validate(g))

	// Huge groups on many threads cannot keep workers busy
	opts = DefaultOptions(64)
	opts.GroupSize = 4096
	d, err = Schedule(g, opts)
	require.NoError(t, err)
	assert.Equal(t, Reducer, d.Strategy)
	assert.True(t, d.Warn)
	assert.Equal(t, 1, d.GroupSize)
	assert.Equal(t, 1, d.Coloring.NumColors())

	opts = DefaultOptions(4)
	opts.GroupSize = 0
	d, err = Schedule(g, opts)
	require.NoError(t, err)
	assert.Equal(t, Reducer, d.Strategy)
	assert.True(t, d.Forced)
	assert.False(t, d.Warn)

	opts = DefaultOptions(4)
	opts.Provided = Greedy(g)
	d, err = Schedule(g, opts)
	require.NoError(t, err)
	assert.Equal(t, Reducer, d.Strategy, "unknown provided efficiency is below threshold")
	assert.Equal(t, UnknownEfficiency, d.Efficiency)

	opts.Provided = Natural(g)
	_, err = Schedule(g, opts)
	assert.True(t, errors.Is(err, ErrUnsafeColoring))

	opts = DefaultOptions(4)
	opts.Algorithm = "bogus"
	_, err = Schedule(g, opts)
	assert.Error(t, err)
}

func TestExecutorStrategiesAgree(t *testing.T) {
	g := randomGraph(t, 300, 1500, 11)
	const nVar = 3
	flux := func(iEdge int, e Edge, out []float64) {
		out[0] = float64(e.I - e.J)
		out[1] = 1.0 / float64(iEdge+1)
		out[2] = float64(iEdge % 7)
	}
	// Serial reference
	want := make([]float64, nVar*g.NumPoints)
	out := make([]float64, nVar)
	for iEdge, e := range g.Edges {
		flux(iEdge, e, out)
		for v := 0; v < nVar; v++ {
			want[e.I*nVar+v] += out[v]
			want[e.J*nVar+v] -= out[v]
		}
	}

	colored, err := Schedule(g, Options{Threads: 4, GroupSize: 4, Threshold: 0.01})
	require.NoError(t, err)
	require.Equal(t, Colored, colored.Strategy)
	forced, err := Schedule(g, Options{Threads: 4, GroupSize: 0})
	require.NoError(t, err)

	for _, d := range []*Decision{colored, forced} {
		x, err := NewExecutor(g, d, 4)
		require.NoError(t, err)
		got := make([]float64, nVar*g.NumPoints)
		require.NoError(t, x.Accumulate(nVar, got, flux))
		assert.InDeltaSlicef(t, want, got, 1e-12, "strategy %v", x.Strategy())
		// Second call reuses the reducer buffer
		got2 := make([]float64, nVar*g.NumPoints)
		require.NoError(t, x.Accumulate(nVar, got2, flux))
		assert.InDeltaSlicef(t, got, got2, 0, "strategy %v", x.Strategy())
	}
}

func TestExecutorRejectsShortTarget(t *testing.T) {
	g := gridGraph(t, 3, 3)
	d, err := Schedule(g, DefaultOptions(2))
	require.NoError(t, err)
	x, err := NewExecutor(g, d, 2)
	require.NoError(t, err)
	err = x.Accumulate(2, make([]float64, 3), func(int, Edge, []float64) {})
	assert.Error(t, err)
}
