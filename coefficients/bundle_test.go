package coefficients

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleSetZero(t *testing.T) {
	arr, err := NewArray(4)
	require.NoError(t, err)
	for i := 0; i < arr.Len(); i++ {
		for c := Channel(0); c < NumChannels; c++ {
			arr.At(i).Set(c, float64(i+1)*float64(c+1))
		}
	}
	arr.SetZero()
	for i := 0; i < arr.Len(); i++ {
		for c := Channel(0); c < NumChannels; c++ {
			assert.Equal(t, 0.0, arr.At(i).Get(c), "marker %d channel %s", i, c)
		}
	}
}

func TestBundleAddRecomputesDerived(t *testing.T) {
	var a, b Bundle
	a.Set(CL, 2)
	a.Set(CD, 1)
	a.Derive()
	b.Set(CL, 4)
	b.Set(CD, 3)
	b.Derive()

	a.Add(&b)
	assert.InDelta(t, 6.0, a.Get(CL), 1e-14)
	assert.InDelta(t, 4.0, a.Get(CD), 1e-14)
	assert.InDelta(t, 1.5, a.Get(CEff), 1e-12)
	// Averaging the two ratios would give 1.1666...
	assert.NotEqual(t, ((2.0/1.0)+(4.0/3.0))/2, a.Get(CEff))
}

func TestBundleAddPNorm(t *testing.T) {
	var a, b Bundle
	a.Set(MaxHF, 3)
	b.Set(MaxHF, 4)
	a.Add(&b)
	expected := math.Pow(math.Pow(3, 8)+math.Pow(4, 8), 1.0/8)
	assert.InDelta(t, expected, a.Get(MaxHF), 1e-12)
	assert.Greater(t, a.Get(MaxHF), 4.0)
}

func TestRatioZeroDenominator(t *testing.T) {
	r := Ratio(1, 0)
	assert.False(t, math.IsNaN(r))
	assert.False(t, math.IsInf(r, 0))
}

func TestChannelKinds(t *testing.T) {
	assert.Equal(t, Derived, CEff.Kind())
	assert.Equal(t, Derived, CMerit.Kind())
	assert.Equal(t, PNorm, MaxHF.Kind())
	assert.Equal(t, Additive, CMz.Kind())
	add := AdditiveChannels()
	assert.Len(t, add, int(NumChannels)-3)
	for _, c := range add {
		assert.Equal(t, Additive, c.Kind())
	}

	c, ok := ChannelByName("CMerit")
	require.True(t, ok)
	assert.Equal(t, CMerit, c)
	_, ok = ChannelByName("nope")
	assert.False(t, ok)
}

func TestArrayChannelRoundTrip(t *testing.T) {
	arr, err := NewArray(3)
	require.NoError(t, err)
	require.NoError(t, arr.SetChannel(CFx, []float64{1, 2, 3}))
	vals := arr.Channel(CFx, nil)
	assert.Equal(t, []float64{1, 2, 3}, vals)
	assert.Error(t, arr.SetChannel(CFx, []float64{1}))

	_, err = NewArray(-1)
	assert.Error(t, err)
}

func TestCenterOfPressure(t *testing.T) {
	var b Bundle
	// 2D: a unit lift force applied at x = 0.25
	b.Set(CFy, 1)
	b.Set(CoPx, 0.25)
	cop := b.CenterOfPressure(2)
	assert.InDelta(t, 0.25, cop[0], 1e-12)
	assert.InDelta(t, 0.0, cop[2], 1e-12)
}
