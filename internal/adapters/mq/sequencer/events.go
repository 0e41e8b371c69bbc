package sequencer

import (
	"time"

	"github.com/okian/monopad/internal/domain/animation"
)

// EventType names a point in a job's life.
type EventType string

const (
	EventQueued     EventType = "queued"
	EventJobStarted EventType = "job_started"
	EventStep       EventType = "step"
	EventJobDone    EventType = "job_done"
)

// Event is emitted to the trace hook as the sequencer works. At is read
// from the sequencer's clock.
type Event struct {
	Type EventType
	Job  animation.Job
	Step int
	Name string
	At   time.Time
}
