package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/mesh"
)

func testMarkers() []mesh.Marker {
	return []mesh.Marker{
		{Tag: "wing", Kind: mesh.EulerWall},
		{Tag: "flap", Kind: mesh.HeatFluxWall},
		{Tag: "farfield", Kind: mesh.FarField},
		{Tag: "nf", Kind: mesh.NearField},
		{Tag: "nacelle", Kind: mesh.EngineInflow},
	}
}

func markerBundles(t *testing.T) *coefficients.Array {
	a, err := coefficients.NewArray(5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		b := a.At(i)
		b.Set(coefficients.CL, float64(2*i+2))
		b.Set(coefficients.CD, float64(i+1))
		b.Set(coefficients.CMx, float64(10*i))
		b.Set(coefficients.CMz, float64(i))
		b.Set(coefficients.MaxHF, float64(i+1))
		b.Derive()
	}
	return a
}

func TestNewRejectsDuplicateSurfaces(t *testing.T) {
	_, err := New(testMarkers(), []string{"wing", "wing"})
	assert.Error(t, err)
}

func TestRollUp(t *testing.T) {
	h, err := New(testMarkers(), []string{"wing", "nf", "flap", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, -1, 1, -1}, []int{h.SurfaceOf(0), h.SurfaceOf(1), h.SurfaceOf(2), h.SurfaceOf(3), h.SurfaceOf(4)})

	nf := []float64{100, 200, 300, 0.25, 500}
	require.NoError(t, h.RollUp(markerBundles(t), nf))

	// Test 1: surfaces by exact tag
	s := h.Surfaces()
	assert.Equal(t, 2.0, s.At(0).Get(coefficients.CL))
	assert.Equal(t, 4.0, s.At(2).Get(coefficients.CL))
	assert.Equal(t, coefficients.Bundle{}, *s.At(3))

	// Test 2: the near-field surface only carries the scalar objective
	assert.Equal(t, coefficients.Bundle{}, *s.At(1))
	assert.Equal(t, 0.25, h.NearField())

	// Test 3: all-bound sums wing and flap, ratios come from the sums
	ab := h.AllBound()
	assert.Equal(t, 6.0, ab.Get(coefficients.CL))
	assert.Equal(t, 3.0, ab.Get(coefficients.CD))
	assert.InDelta(t, 2.0, ab.Get(coefficients.CEff), 1e-14)
	// Each moment axis accumulates on its own
	assert.Equal(t, 10.0, ab.Get(coefficients.CMx))
	assert.Equal(t, 1.0, ab.Get(coefficients.CMz))
	assert.InDelta(t, math.Pow(1+math.Pow(2, 8), 1.0/8), ab.Get(coefficients.MaxHF), 1e-14)

	// Test 4: a second roll up starts from scratch
	require.NoError(t, h.RollUp(markerBundles(t), nil))
	assert.Equal(t, 6.0, h.AllBound().Get(coefficients.CL))
	assert.Equal(t, 0.0, h.NearField())
}

func TestRollUpSizeMismatch(t *testing.T) {
	h, err := New(testMarkers(), nil)
	require.NoError(t, err)
	a, _ := coefficients.NewArray(2)
	assert.Error(t, h.RollUp(a, nil))
	assert.Error(t, h.RollUp(markerBundles(t), []float64{1}))
}

func TestTotalsContract(t *testing.T) {
	h, err := New(testMarkers(), []string{"wing", "flap"})
	require.NoError(t, err)
	require.NoError(t, h.RollUp(markerBundles(t), nil))

	tot, err := NewTotals(2)
	require.NoError(t, err)

	// Test 1: adding before the pressure pass reset is an ordering error
	assert.ErrorIs(t, tot.Add(h), ErrPassOrder)

	// Test 2: reset then three passes
	tot.Reset()
	for pass := 0; pass < 3; pass++ {
		require.NoError(t, tot.Add(h))
	}
	assert.Equal(t, 18.0, tot.Total().Get(coefficients.CL))
	assert.Equal(t, 9.0, tot.Total().Get(coefficients.CD))
	assert.InDelta(t, 2.0, tot.Total().Get(coefficients.CEff), 1e-14)
	assert.Equal(t, 12.0, tot.Surfaces().At(1).Get(coefficients.CL))

	// Test 3: reset clears the previous iteration
	tot.Close()
	assert.ErrorIs(t, tot.Add(h), ErrPassOrder)
	tot.Reset()
	assert.Equal(t, coefficients.Bundle{}, *tot.Total())
	assert.Equal(t, 0.0, tot.NearField())
}
