package coefficients

import (
	"fmt"
	"math"
)

// EPS is added to ratio denominators so that derived channels never divide by zero
const EPS = 1.0e-16

// MaxHeatNorm is the exponent of the generalized mean used to smooth the maximum heat flux
const MaxHeatNorm = 8.0

// Channel addresses one scalar of a Bundle
type Channel uint8

const (
	CD     Channel = iota // Drag
	CL                    // Lift
	CSF                   // Side force
	CEff                  // Lift / drag, derived
	CFx                   // Force components
	CFy                   //
	CFz                   //
	CMx                   // Moment components about the reference origin
	CMy                   //
	CMz                   //
	CoPx                  // Moment due to force at raw coordinates, center of pressure numerators
	CoPy                  //
	CoPz                  //
	CT                    // Thrust
	CQ                    // Torque
	CMerit                // Thrust / torque, derived
	HF                    // Integrated heat flux
	MaxHF                 // Smoothed maximum heat flux, p-norm with p = MaxHeatNorm

	NumChannels
)

// ChannelKind describes how a channel combines across markers and partitions
type ChannelKind uint8

const (
	Additive ChannelKind = iota // Summed
	Derived                     // Recomputed from already combined channels, never summed
	PNorm                       // Combined as (sum x^p)^(1/p)
)

var channelNames = [NumChannels]string{
	"CD", "CL", "CSF", "CEff",
	"CFx", "CFy", "CFz",
	"CMx", "CMy", "CMz",
	"CoPx", "CoPy", "CoPz",
	"CT", "CQ", "CMerit",
	"HF", "MaxHF",
}

// String returns the conventional short name of the channel
func (c Channel) String() string {
	if c < NumChannels {
		return channelNames[c]
	}
	return fmt.Sprintf("Channel(%d)", uint8(c))
}

// Kind returns how the channel combines
func (c Channel) Kind() ChannelKind {
	switch c {
	case CEff, CMerit:
		return Derived
	case MaxHF:
		return PNorm
	default:
		return Additive
	}
}

// AdditiveChannels lists every channel combined by summation, in channel order
func AdditiveChannels() []Channel {
	out := make([]Channel, 0, NumChannels)
	for c := Channel(0); c < NumChannels; c++ {
		if c.Kind() == Additive {
			out = append(out, c)
		}
	}
	return out
}

// ChannelByName looks up a channel by its short name
func ChannelByName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// Ratio is the epsilon guarded quotient used for every derived channel
func Ratio(num, den float64) float64 {
	return num / (den + EPS)
}

// PNormCombine merges two already rooted generalized means: (a^p + b^p)^(1/p)
func PNormCombine(a, b, p float64) float64 {
	return math.Pow(math.Pow(a, p)+math.Pow(b, p), 1.0/p)
}

// Bundle is the fixed set of coefficient channels owned by one marker, surface or global total
type Bundle [NumChannels]float64

// SetZero clears every channel
func (b *Bundle) SetZero() {
	*b = Bundle{}
}

// Get returns channel c
func (b *Bundle) Get(c Channel) float64 { return b[c] }

// Set assigns channel c
func (b *Bundle) Set(c Channel, v float64) { b[c] = v }

// Add accumulates o into b. Additive channels are summed, the p-norm channel is
// combined in p-th power space and the derived channels are recomputed.
func (b *Bundle) Add(o *Bundle) {
	for c := Channel(0); c < NumChannels; c++ {
		if c.Kind() == Additive {
			b[c] += o[c]
		}
	}
	b[MaxHF] = PNormCombine(b[MaxHF], o[MaxHF], MaxHeatNorm)
	b.Derive()
}

// Derive recomputes the quotient channels from their numerators and denominators
func (b *Bundle) Derive() {
	b[CEff] = Ratio(b[CL], b[CD])
	b[CMerit] = Ratio(b[CT], b[CQ])
}

// CenterOfPressure converts the CoP moment channels into coordinates.
// In 2D the x location uses CFy and the y location uses CFx; in 3D the x location uses
// CFz and the z location uses CFx. Unused axes are zero.
func (b *Bundle) CenterOfPressure(nDim int) (cop [3]float64) {
	if nDim == 2 {
		cop[0] = Ratio(b[CoPx], b[CFy])
		cop[1] = Ratio(b[CoPy], b[CFx])
		return
	}
	cop[0] = Ratio(b[CoPx], b[CFz])
	cop[2] = Ratio(b[CoPz], b[CFx])
	return
}

// Map returns the bundle keyed by channel name, used for reporting
func (b *Bundle) Map() map[string]float64 {
	m := make(map[string]float64, NumChannels)
	for c := Channel(0); c < NumChannels; c++ {
		m[c.String()] = b[c]
	}
	return m
}
