// Package trust applies rating changes to entities: it steps the rating,
// persists it and hands the resulting transition to the animation queue.
//
// State changes first and is persisted before anything is queued. A change
// the persister refuses is rolled back: no job, no refresh, and the
// trigger signature is released so a redelivery can apply it.
package trust

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/monopad/internal/domain/animation"
	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/internal/domain/rating"
	"github.com/okian/monopad/pkg/logger"
	"github.com/okian/monopad/pkg/metrics"
)

// ErrNilSubject is returned when a change is requested without an entity.
var ErrNilSubject = errors.New("trust: nil subject")

// Subject is anything exposing a mutable rating.
type Subject interface {
	SubjectID() string
	CurrentRating() int
	SetRating(v int)
}

// Ledgered is a subject that remembers applied trigger signatures.
type Ledgered interface {
	Subject
	SeenAndRecord(sig string) bool
	Forget(sig string)
}

// Persister stores a subject after its rating changed.
type Persister interface {
	Persist(ctx context.Context, s Subject) error
}

// PersistFunc adapts a function to Persister.
type PersistFunc func(ctx context.Context, s Subject) error

// Persist calls f.
func (f PersistFunc) Persist(ctx context.Context, s Subject) error { return f(ctx, s) }

// Enqueuer accepts animation jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job animation.Job) error
}

// Refresher is told which entity changed so an open detail view can reload.
type Refresher func(ctx context.Context, entityID string)

// Outcome reports what a change did. A no-op at a bound or a replayed
// trigger is an outcome, not an error.
type Outcome struct {
	EntityID  string      `json:"entity_id"`
	Previous  int         `json:"previous"`
	Current   int         `json:"current"`
	Kind      rating.Kind `json:"kind"`
	Changed   bool        `json:"changed"`
	Duplicate bool        `json:"duplicate,omitempty"`
	JobID     string      `json:"job_id,omitempty"`
}

// Adapter is the rating-change trigger adapter.
type Adapter struct {
	persist Persister
	queue   Enqueuer
	refresh Refresher
	log     logger.Logger
}

// New builds an adapter. persist and queue may be nil, in which case that
// side effect is skipped.
func New(persist Persister, queue Enqueuer, opts ...Option) *Adapter {
	a := &Adapter{
		persist: persist,
		queue:   queue,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Named("trust")
	}
	return a
}

// Increase steps the subject's rating up. At Max it is a no-op.
func (a *Adapter) Increase(ctx context.Context, s Subject) (Outcome, error) {
	return a.change(ctx, s, model.Increase)
}

// Decrease steps the subject's rating down. At Min it is a no-op.
func (a *Adapter) Decrease(ctx context.Context, s Subject) (Outcome, error) {
	return a.change(ctx, s, model.Decrease)
}

// Apply runs a change delivered by a trigger source. A signature already
// in the subject's ledger is dropped without touching the rating.
func (a *Adapter) Apply(ctx context.Context, s Ledgered, sig string, dir model.Direction) (Outcome, error) {
	if s == nil {
		return Outcome{}, ErrNilSubject
	}
	if !dir.Valid() {
		return Outcome{}, fmt.Errorf("apply %q: %w", sig, model.ErrUnknownDirection)
	}
	if s.SeenAndRecord(sig) {
		metrics.RecordTriggerDuplicate()
		a.log.Debug(ctx, "duplicate trigger dropped",
			logger.String("entity", s.SubjectID()),
			logger.String("signature", sig),
		)
		cur := s.CurrentRating()
		return Outcome{EntityID: s.SubjectID(), Previous: cur, Current: cur, Duplicate: true}, nil
	}

	out, err := a.change(ctx, s, dir)
	if err == nil && !out.Changed {
		// Saturated: the rating did not move but the ledger did.
		err = a.save(ctx, s)
	}
	if err != nil {
		s.Forget(sig)
	}
	return out, err
}

func (a *Adapter) change(ctx context.Context, s Subject, dir model.Direction) (Outcome, error) {
	if s == nil {
		return Outcome{}, ErrNilSubject
	}
	prev := s.CurrentRating()
	out := Outcome{EntityID: s.SubjectID(), Previous: prev, Current: prev}

	var next int
	switch dir {
	case model.Increase:
		if prev >= rating.Max {
			metrics.RecordRatingNoop(string(dir))
			return out, nil
		}
		next = rating.Clamp(rating.NextUp(prev))
	case model.Decrease:
		if prev <= rating.Min {
			metrics.RecordRatingNoop(string(dir))
			return out, nil
		}
		next = rating.Clamp(rating.NextDown(prev))
	default:
		return out, fmt.Errorf("change %s: %w", s.SubjectID(), model.ErrUnknownDirection)
	}

	kind, ok := rating.Classify(prev, next)
	if !ok {
		// Only reachable for a subject holding an out-of-range rating.
		return out, fmt.Errorf("change %s: invalid rating %d", s.SubjectID(), prev)
	}

	s.SetRating(next)
	if err := a.save(ctx, s); err != nil {
		s.SetRating(prev)
		return out, err
	}
	out.Current = next
	out.Kind = kind
	out.Changed = true
	metrics.RecordRatingChange(kind.String())

	if a.queue != nil {
		job := animation.NewJob(s.SubjectID(), kind, prev, next)
		if err := a.queue.Enqueue(ctx, job); err != nil {
			a.log.Warn(ctx, "animation not queued",
				logger.String("entity", s.SubjectID()),
				logger.String("kind", kind.String()),
				logger.Error(err),
			)
		} else {
			out.JobID = job.ID
		}
	}

	if a.refresh != nil {
		a.refresh(ctx, s.SubjectID())
	}

	a.log.Debug(ctx, "rating changed",
		logger.String("entity", s.SubjectID()),
		logger.Int("previous", prev),
		logger.Int("current", next),
		logger.String("kind", kind.String()),
	)
	return out, nil
}

func (a *Adapter) save(ctx context.Context, s Subject) error {
	if a.persist == nil {
		return nil
	}
	if err := a.persist.Persist(ctx, s); err != nil {
		metrics.RecordPersistError()
		a.log.Warn(ctx, "persist failed",
			logger.String("entity", s.SubjectID()),
			logger.Error(err),
		)
		return fmt.Errorf("persist %s: %w", s.SubjectID(), err)
	}
	return nil
}
