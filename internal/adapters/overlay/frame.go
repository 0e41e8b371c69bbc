// Package overlay is the presentation surface the sequencer draws on. It
// keeps the overlay state in memory and streams every change to the
// connected browser overlays over websocket.
package overlay

import (
	"time"

	"github.com/okian/monopad/internal/domain/gauge"
	"github.com/okian/monopad/internal/domain/rating"
)

// FrameType tells the browser how to read a frame.
type FrameType string

const (
	FrameOverlay FrameType = "overlay"
	FrameSound   FrameType = "sound"
	FrameRefresh FrameType = "refresh"
)

// Frame is one message on the overlay feed.
type Frame struct {
	Type     FrameType `json:"type"`
	Overlay  *Snapshot `json:"overlay,omitempty"`
	Sound    *SoundCue `json:"sound,omitempty"`
	EntityID string    `json:"entity_id,omitempty"`
	At       time.Time `json:"at"`
}

// SoundCue tells the browser to start, stop or re-level a sound.
type SoundCue struct {
	Category string  `json:"category"`
	Action   string  `json:"action"`
	Volume   float64 `json:"volume"`
}

// Publisher receives frames.
type Publisher interface {
	Publish(f Frame)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(f Frame)

// Publish calls fn.
func (fn PublisherFunc) Publish(f Frame) { fn(f) }

// SegmentFx is a transient effect on one segment.
type SegmentFx struct {
	Index  int          `json:"index"`
	Effect gauge.Effect `json:"effect"`
}

// Banner is the text line under the gauge.
type Banner struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// Snapshot is the full overlay state.
type Snapshot struct {
	Visible bool               `json:"visible"`
	Mode    rating.Mode        `json:"mode"`
	Gauge   gauge.Gauge        `json:"gauge"`
	Banner  Banner             `json:"banner"`
	Effects []SegmentFx        `json:"effects"`
	Rings   []gauge.RingEffect `json:"rings"`
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Effects = append([]SegmentFx(nil), s.Effects...)
	c.Rings = append([]gauge.RingEffect(nil), s.Rings...)
	return c
}
