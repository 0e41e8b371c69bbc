package sequencer

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/pkg/logger"
)

// Option applies a configuration option to the Sequencer.
type Option func(*Sequencer)

// WithClock sets the clock steps are timed against.
func WithClock(c clockwork.Clock) Option {
	return func(s *Sequencer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTrace installs a hook called for every sequencer event. The hook runs
// on the sequencer's goroutine and must not block.
func WithTrace(fn func(Event)) Option {
	return func(s *Sequencer) {
		s.trace = fn
	}
}

// WithFade sets the dismissal fade: the volume drops by step every
// interval.
func WithFade(interval time.Duration, step float64) Option {
	return func(s *Sequencer) {
		if interval > 0 {
			s.fadeInterval = interval
		}
		if step > 0 {
			s.fadeStep = step
		}
	}
}

// WithDefaultVolume sets the volume a channel is reset to after it stops.
func WithDefaultVolume(v float64) Option {
	return func(s *Sequencer) {
		if v > 0 && v <= 1 {
			s.defaultVolume = v
		}
	}
}

// WithMusicFade toggles the fade on dismissal. When off the music stops at
// once.
func WithMusicFade(enabled bool) Option {
	return func(s *Sequencer) {
		s.fadeMusic = enabled
	}
}
