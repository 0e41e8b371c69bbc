// Package animation describes the timed overlay sequence played for each
// rating transition and the presentation collaborators it drives.
package animation

import (
	"errors"

	"github.com/okian/monopad/internal/domain/gauge"
	"github.com/okian/monopad/internal/domain/rating"
)

// ErrElementMissing is returned by a Surface when the element a step needs
// is not mounted on the host page.
var ErrElementMissing = errors.New("presentation element missing")

// Sound is an audio category with its own playback channel.
type Sound string

const (
	SoundRankUp          Sound = "rank_up"
	SoundRankDown        Sound = "rank_down"
	SoundMaxed           Sound = "maxed"
	SoundDistrustRecover Sound = "distrust_recover"
	SoundShatter         Sound = "shatter"
)

// Sounds lists every known category.
func Sounds() []Sound {
	return []Sound{SoundRankUp, SoundRankDown, SoundMaxed, SoundDistrustRecover, SoundShatter}
}

// Surface is the overlay the sequencer draws on: a container, the ring
// gauge and a banner line.
type Surface interface {
	ShowOverlay(mode rating.Mode) error
	HideOverlay() error
	DrawGauge(g gauge.Gauge) error
	SegmentEffect(index int, effect gauge.Effect) error
	RingEffect(effect gauge.RingEffect, on bool) error
	SetBanner(text string, visible bool) error
}

// Audio plays sound categories. Every error it returns is swallowed by the
// sequencer.
type Audio interface {
	Play(s Sound, volume float64) error
	Stop(s Sound) error
	Volume(s Sound) (float64, error)
	SetVolume(s Sound, v float64) error
}

// Stage bundles the collaborators a step renders onto.
type Stage struct {
	Surface Surface
	Audio   Audio
}
