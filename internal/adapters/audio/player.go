// Package audio is the sound player the sequencer cues. Every category has
// its own channel; playback itself happens in the browser overlay, which
// receives a sound frame for each change.
package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/internal/adapters/overlay"
	"github.com/okian/monopad/internal/domain/animation"
)

const defaultVolume = 0.5

var (
	// ErrUnknownCategory is returned for a sound category with no channel.
	ErrUnknownCategory = errors.New("unknown sound category")
	// ErrPlaybackFailed is returned when a channel cannot play, such as a
	// missing asset.
	ErrPlaybackFailed = errors.New("sound playback failed")
)

// Channel is the state of one category.
type Channel struct {
	Category animation.Sound `json:"category"`
	Volume   float64         `json:"volume"`
	Playing  bool            `json:"playing"`
	Loaded   bool            `json:"loaded"`
}

// Player implements animation.Audio.
type Player struct {
	mu            sync.Mutex
	channels      map[animation.Sound]*Channel
	defaultVolume float64
	pub           overlay.Publisher
	clock         clockwork.Clock
}

// NewPlayer creates a player with one loaded channel per known category.
func NewPlayer(opts ...Option) *Player {
	p := &Player{
		channels:      make(map[animation.Sound]*Channel),
		defaultVolume: defaultVolume,
		clock:         clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, s := range animation.Sounds() {
		p.channels[s] = &Channel{Category: s, Volume: p.defaultVolume, Loaded: true}
	}
	return p
}

func (p *Player) channel(s animation.Sound) (*Channel, error) {
	ch, ok := p.channels[s]
	if !ok {
		return nil, fmt.Errorf("%q: %w", s, ErrUnknownCategory)
	}
	return ch, nil
}

// Play starts s from the beginning. A volume <= 0 keeps the player default.
func (p *Player) Play(s animation.Sound, volume float64) error {
	p.mu.Lock()
	ch, err := p.channel(s)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if !ch.Loaded {
		p.mu.Unlock()
		return fmt.Errorf("%q: %w", s, ErrPlaybackFailed)
	}
	if volume <= 0 {
		volume = p.defaultVolume
	}
	ch.Volume = clampVolume(volume)
	ch.Playing = true
	cue := overlay.SoundCue{Category: string(s), Action: "play", Volume: ch.Volume}
	p.mu.Unlock()

	p.publish(cue)
	return nil
}

// Stop halts s. Stopping a silent channel is not an error.
func (p *Player) Stop(s animation.Sound) error {
	p.mu.Lock()
	ch, err := p.channel(s)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	ch.Playing = false
	cue := overlay.SoundCue{Category: string(s), Action: "stop", Volume: ch.Volume}
	p.mu.Unlock()

	p.publish(cue)
	return nil
}

// Volume returns the current volume of s.
func (p *Player) Volume(s animation.Sound) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(s)
	if err != nil {
		return 0, err
	}
	return ch.Volume, nil
}

// SetVolume changes the volume of s, clamped to [0, 1].
func (p *Player) SetVolume(s animation.Sound, v float64) error {
	p.mu.Lock()
	ch, err := p.channel(s)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	ch.Volume = clampVolume(v)
	cue := overlay.SoundCue{Category: string(s), Action: "volume", Volume: ch.Volume}
	p.mu.Unlock()

	p.publish(cue)
	return nil
}

// Unload marks the asset for s as missing; Play then fails until Load.
func (p *Player) Unload(s animation.Sound) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(s)
	if err != nil {
		return err
	}
	ch.Loaded = false
	ch.Playing = false
	return nil
}

// Load marks the asset for s as available.
func (p *Player) Load(s animation.Sound) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(s)
	if err != nil {
		return err
	}
	ch.Loaded = true
	return nil
}

// Channels returns a copy of every channel in category order.
func (p *Player) Channels() []Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Channel, 0, len(p.channels))
	for _, s := range animation.Sounds() {
		out = append(out, *p.channels[s])
	}
	return out
}

func (p *Player) publish(cue overlay.SoundCue) {
	if p.pub == nil {
		return
	}
	p.pub.Publish(overlay.Frame{Type: overlay.FrameSound, Sound: &cue, At: p.clock.Now()})
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
