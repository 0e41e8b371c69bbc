// Package gauge models the ten-segment rating ring drawn on the overlay.
package gauge

import "github.com/okian/monopad/internal/domain/rating"

// Segments is the number of ring segments.
const Segments = 10

// Fill is the paint state of one segment.
type Fill string

const (
	FillEmpty         Fill = "empty"          // trust shell
	FillTrust         Fill = "trust"          // blue
	FillDistrustShell Fill = "distrust_shell" // corrupted shell
	FillDistrust      Fill = "distrust"       // red
	FillGold          Fill = "gold"
)

// Effect is a transient animation applied to one segment.
type Effect string

const (
	EffectShatter   Effect = "shatter"
	EffectCrack     Effect = "crack"
	EffectFall      Effect = "fall"
	EffectFade      Effect = "fade"
	EffectHighlight Effect = "highlight"
	EffectCrystal   Effect = "crystal"
)

// RingEffect is a transient animation applied to the whole ring.
type RingEffect string

const (
	RingSpinUp      RingEffect = "spin_up"
	RingPurifyPulse RingEffect = "purify_pulse"
	RingPurifyWave  RingEffect = "purify_wave"
	RingGoldReveal  RingEffect = "gold_reveal"
)

// Options alter how a value is painted.
type Options struct {
	// Gold paints every segment gold.
	Gold bool
	// Distrust draws a non-negative value on the corrupted shell.
	Distrust bool
}

// Gauge is a fully painted ring.
type Gauge struct {
	Value    int            `json:"value"`
	Mode     rating.Mode    `json:"mode"`
	Gold     bool           `json:"gold"`
	Segments [Segments]Fill `json:"segments"`
}

// For paints value onto a fresh ring. Trust values fill from index 0
// upwards, distrust values fill from index 9 downwards.
func For(value int, opts Options) Gauge {
	g := Gauge{Value: value, Gold: opts.Gold, Mode: rating.Trust}
	if value < 0 || opts.Distrust {
		g.Mode = rating.Distrust
	}

	abs := rating.Abs(value)
	for i := 0; i < Segments; i++ {
		switch {
		case opts.Gold:
			g.Segments[i] = FillGold
		case value < 0:
			if i >= Segments-abs {
				g.Segments[i] = FillDistrust
			} else {
				g.Segments[i] = FillDistrustShell
			}
		case opts.Distrust:
			g.Segments[i] = FillDistrustShell
		case i < value:
			g.Segments[i] = FillTrust
		default:
			g.Segments[i] = FillEmpty
		}
	}
	return g
}

// Filled counts segments painted with f.
func (g Gauge) Filled(f Fill) int {
	n := 0
	for _, s := range g.Segments {
		if s == f {
			n++
		}
	}
	return n
}

// TrustEdge is the index of the highest lit trust segment for value v.
func TrustEdge(v int) int {
	return v - 1
}

// DistrustEdge is the index of the innermost lit distrust segment for value v.
func DistrustEdge(v int) int {
	return Segments - rating.Abs(v)
}
