package service

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/internal/adapters/mq/sequencer"
	"github.com/okian/monopad/internal/adapters/overlay"
	"github.com/okian/monopad/internal/adapters/repository"
	"github.com/okian/monopad/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the entity store. The default is an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithHub sets the overlay feed hub.
func WithHub(h *overlay.Hub) Option {
	return func(s *Service) {
		if h != nil {
			s.hub = h
		}
	}
}

// WithClock sets the clock for animation timing and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueueCapacity bounds the animation queue. Zero means unbounded.
func WithQueueCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity >= 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithLedgerSize bounds the ledger of newly registered entities. Zero
// means unbounded.
func WithLedgerSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.ledgerSize = size
		}
	}
}

// WithFade sets the dismissal music fade.
func WithFade(interval time.Duration, step float64) Option {
	return func(s *Service) {
		if interval > 0 && step > 0 {
			s.fadeInterval = interval
			s.fadeStep = step
		}
	}
}

// WithDefaultVolume sets the volume sound channels start at and are reset to.
func WithDefaultVolume(v float64) Option {
	return func(s *Service) {
		if v > 0 && v <= 1 {
			s.defaultVolume = v
		}
	}
}

// WithMusicFade turns the dismissal fade on or off.
func WithMusicFade(enabled bool) Option {
	return func(s *Service) {
		s.fadeMusic = enabled
	}
}

// WithTrace observes sequencer events.
func WithTrace(fn func(sequencer.Event)) Option {
	return func(s *Service) {
		s.trace = fn
	}
}
