package overlay

import (
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/internal/domain/animation"
	"github.com/okian/monopad/internal/domain/gauge"
	"github.com/okian/monopad/internal/domain/rating"
)

// ErrElementMissing is the surface's missing-element error; it is the
// same value the sequencer checks for.
var ErrElementMissing = animation.ErrElementMissing

// Element is one addressable part of the overlay.
type Element string

const (
	ElementContainer Element = "container"
	ElementGauge     Element = "gauge"
	ElementBanner    Element = "banner"
)

// Surface implements animation.Surface on in-memory state.
type Surface struct {
	mu       sync.Mutex
	state    Snapshot
	detached map[Element]bool
	pub      Publisher
	clock    clockwork.Clock
}

// NewSurface creates a hidden overlay showing the initial rating.
func NewSurface(opts ...SurfaceOption) *Surface {
	s := &Surface{
		state:    Snapshot{Gauge: gauge.For(rating.Initial, gauge.Options{})},
		detached: make(map[Element]bool),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detach unmounts an element. Steps touching it then fail with
// ErrElementMissing.
func (s *Surface) Detach(el Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached[el] = true
}

// Attach mounts an element again.
func (s *Surface) Attach(el Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.detached, el)
}

// Snapshot returns a copy of the current state.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// update applies fn when el is mounted and publishes the new state.
func (s *Surface) update(el Element, fn func(st *Snapshot)) error {
	s.mu.Lock()
	if s.detached[el] {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", el, ErrElementMissing)
	}
	fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()

	if s.pub != nil {
		s.pub.Publish(Frame{Type: FrameOverlay, Overlay: &snap, At: s.clock.Now()})
	}
	return nil
}

// ShowOverlay implements animation.Surface.
func (s *Surface) ShowOverlay(mode rating.Mode) error {
	return s.update(ElementContainer, func(st *Snapshot) {
		st.Visible = true
		st.Mode = mode
	})
}

// HideOverlay implements animation.Surface. Hiding also clears the banner
// and every transient effect.
func (s *Surface) HideOverlay() error {
	return s.update(ElementContainer, func(st *Snapshot) {
		st.Visible = false
		st.Banner = Banner{}
		st.Effects = nil
		st.Rings = nil
	})
}

// DrawGauge implements animation.Surface. A redraw clears segment effects.
func (s *Surface) DrawGauge(g gauge.Gauge) error {
	return s.update(ElementGauge, func(st *Snapshot) {
		st.Gauge = g
		st.Effects = nil
	})
}

// SegmentEffect implements animation.Surface.
func (s *Surface) SegmentEffect(index int, effect gauge.Effect) error {
	if index < 0 || index >= gauge.Segments {
		return fmt.Errorf("segment %d out of range", index)
	}
	return s.update(ElementGauge, func(st *Snapshot) {
		st.Effects = append(st.Effects, SegmentFx{Index: index, Effect: effect})
	})
}

// RingEffect implements animation.Surface.
func (s *Surface) RingEffect(effect gauge.RingEffect, on bool) error {
	return s.update(ElementGauge, func(st *Snapshot) {
		rings := st.Rings[:0:0]
		for _, r := range st.Rings {
			if r != effect {
				rings = append(rings, r)
			}
		}
		if on {
			rings = append(rings, effect)
		}
		st.Rings = rings
	})
}

// SetBanner implements animation.Surface.
func (s *Surface) SetBanner(text string, visible bool) error {
	return s.update(ElementBanner, func(st *Snapshot) {
		st.Banner = Banner{Text: text, Visible: visible}
	})
}

// SurfaceOption applies a configuration option to the Surface.
type SurfaceOption func(*Surface)

// WithPublisher streams every state change to p.
func WithPublisher(p Publisher) SurfaceOption {
	return func(s *Surface) {
		s.pub = p
	}
}

// WithClock sets the clock frames are stamped with.
func WithClock(c clockwork.Clock) SurfaceOption {
	return func(s *Surface) {
		if c != nil {
			s.clock = c
		}
	}
}
