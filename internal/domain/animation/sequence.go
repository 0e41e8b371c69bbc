package animation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/monopad/internal/domain/rating"
)

// Job is one queued transition waiting to be rendered.
type Job struct {
	ID       string      `json:"id"`
	EntityID string      `json:"entity_id"`
	Kind     rating.Kind `json:"kind"`
	Previous int         `json:"previous"`
	Current  int         `json:"current"`
}

// NewJob builds a job with a fresh id.
func NewJob(entityID string, kind rating.Kind, previous, current int) Job {
	return Job{
		ID:       uuid.NewString(),
		EntityID: entityID,
		Kind:     kind,
		Previous: previous,
		Current:  current,
	}
}

// Cue is a sound played when a step renders. Zero Volume means the
// player's default.
type Cue struct {
	Sound  Sound
	Volume float64
}

// Step is one timed frame of a sequence. At is measured from the start of
// the sequence, not from the previous step.
type Step struct {
	At     time.Duration
	Name   string
	Cue    *Cue
	Render func(s Surface) error
}

// Dismissal describes what the click on a lingering overlay does to audio.
type Dismissal struct {
	// FadeOut is faded to silence and then stopped.
	FadeOut Sound
	// Stop is stopped immediately.
	Stop Sound
}

// Sequence is the full rendering of one transition kind.
type Sequence struct {
	Kind  rating.Kind
	Steps []Step
	// Linger keeps the overlay up after the last step until dismissed.
	// The queue does not wait for the dismissal.
	Linger    bool
	Dismissal Dismissal
}

// Duration is the offset of the last step: the point at which the
// sequencer considers the job done.
func (s Sequence) Duration() time.Duration {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].At
}

// Offsets returns every step offset in order.
func (s Sequence) Offsets() []time.Duration {
	out := make([]time.Duration, len(s.Steps))
	for i, st := range s.Steps {
		out[i] = st.At
	}
	return out
}

// For selects the sequence matching the job's transition kind.
func For(job Job) (Sequence, error) {
	switch job.Kind {
	case rating.TrustRankUp:
		return trustRankUp(job.Previous, job.Current), nil
	case rating.TrustRankDown:
		return trustRankDown(job.Previous, job.Current), nil
	case rating.DistrustRankUp:
		return distrustRankUp(job.Previous, job.Current), nil
	case rating.DistrustRankDown:
		return distrustRankDown(job.Previous, job.Current), nil
	case rating.TrustMaxed:
		return trustMaxed(), nil
	case rating.TrustToDistrust:
		return trustToDistrust(), nil
	case rating.DistrustToTrustRecovery:
		return distrustToTrustRecovery(), nil
	}
	return Sequence{}, fmt.Errorf("no sequence for transition %s", job.Kind)
}

// Duration is a shortcut for the done offset of a kind.
func Duration(kind rating.Kind) time.Duration {
	seq, err := For(Job{Kind: kind, Previous: 2, Current: 3})
	if err != nil {
		return 0
	}
	return seq.Duration()
}
