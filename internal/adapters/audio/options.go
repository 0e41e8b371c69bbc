package audio

import (
	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/internal/adapters/overlay"
)

// Option applies a configuration option to the Player.
type Option func(*Player)

// WithPublisher streams sound frames to p.
func WithPublisher(pub overlay.Publisher) Option {
	return func(p *Player) {
		p.pub = pub
	}
}

// WithDefaultVolume sets the volume channels start at and Play falls back
// to.
func WithDefaultVolume(v float64) Option {
	return func(p *Player) {
		if v > 0 && v <= 1 {
			p.defaultVolume = v
		}
	}
}

// WithClock sets the clock frames are stamped with.
func WithClock(c clockwork.Clock) Option {
	return func(p *Player) {
		if c != nil {
			p.clock = c
		}
	}
}
