// Package sequencer renders queued animation jobs one at a time.
//
// A single Run loop pops the head of the queue, plays every timed step of
// its sequence and only then pops the next job. Steps are timed against
// an injected clockwork.Clock so tests can drive the schedule with a fake
// clock. Kinds that linger leave the overlay up after their last step;
// the queue moves on regardless and the overlay is cleared by Dismiss or
// by the next job.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/internal/adapters/mq/queue"
	"github.com/okian/monopad/internal/domain/animation"
	"github.com/okian/monopad/internal/domain/rating"
	"github.com/okian/monopad/pkg/logger"
	"github.com/okian/monopad/pkg/metrics"
)

const (
	defaultFadeInterval  = 15 * time.Millisecond
	defaultFadeStep      = 0.05
	defaultMusicVolume   = 0.5
	fadeEpsilon          = 1e-9
	dismissReasonClick   = "click"
	dismissReasonReplace = "superseded"
)

// lingering is the overlay left up by a terminal kind.
type lingering struct {
	job       animation.Job
	dismissal animation.Dismissal
}

// Sequencer drains a queue of animation jobs onto a stage.
type Sequencer struct {
	queue queue.Queue
	stage animation.Stage
	clock clockwork.Clock
	log   logger.Logger
	trace func(Event)

	fadeInterval  time.Duration
	fadeStep      float64
	defaultVolume float64
	fadeMusic     bool

	// stageMu gives one owner at a time the surface and audio channels.
	stageMu sync.Mutex

	mu        sync.Mutex
	animating bool
	current   *animation.Job
	linger    *lingering
	idle      chan struct{} // closed while nothing is queued or playing
}

// New creates a sequencer over q rendering onto stage.
func New(q queue.Queue, stage animation.Stage, opts ...Option) *Sequencer {
	idle := make(chan struct{})
	close(idle)
	s := &Sequencer{
		queue:         q,
		stage:         stage,
		clock:         clockwork.NewRealClock(),
		fadeInterval:  defaultFadeInterval,
		fadeStep:      defaultFadeStep,
		defaultVolume: defaultMusicVolume,
		fadeMusic:     true,
		idle:          idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("sequencer")
	}
	return s
}

// Enqueue appends job to the queue. It never waits for rendering.
func (s *Sequencer) Enqueue(ctx context.Context, job animation.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Push(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Kind, err)
	}
	s.markBusy()
	s.emit(Event{Type: EventQueued, Job: job, At: s.clock.Now()})
	return nil
}

// Run drains the queue until ctx is cancelled or the queue is closed and
// empty.
func (s *Sequencer) Run(ctx context.Context) error {
	s.log.Info(ctx, "sequencer started")
	defer s.stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if job, ok := s.next(); ok {
			s.play(ctx, job)
			continue
		}
		if s.queue.IsClosed() && s.queue.Len() == 0 {
			s.log.Info(ctx, "sequencer drained")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.queue.Ready():
		}
	}
}

// next pops the head job, or marks the sequencer idle when there is none.
func (s *Sequencer) next() (animation.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.queue.Pop()
	if !ok {
		s.animating = false
		s.current = nil
		s.markIdle()
		return animation.Job{}, false
	}
	s.animating = true
	s.current = &job
	return job, true
}

func (s *Sequencer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animating = false
	s.current = nil
	s.markIdle()
}

// markBusy and markIdle require s.mu.
func (s *Sequencer) markBusy() {
	select {
	case <-s.idle:
		s.idle = make(chan struct{})
	default:
	}
}

func (s *Sequencer) markIdle() {
	select {
	case <-s.idle:
	default:
		close(s.idle)
	}
}

// play renders every step of job. A step that fails to render is skipped;
// the job always reaches its done point.
func (s *Sequencer) play(ctx context.Context, job animation.Job) {
	seq, err := animation.For(job)
	if err != nil {
		s.log.Error(ctx, "job dropped", logger.String("job", job.ID), logger.Error(err))
		return
	}

	s.stageMu.Lock()
	defer s.stageMu.Unlock()

	s.supersede(ctx)

	start := s.clock.Now()
	s.emit(Event{Type: EventJobStarted, Job: job, At: start})

	for i, step := range seq.Steps {
		if wait := step.At - s.clock.Since(start); wait > 0 {
			select {
			case <-s.clock.After(wait):
			case <-ctx.Done():
				s.log.Warn(ctx, "job interrupted by shutdown",
					logger.String("job", job.ID),
					logger.String("kind", job.Kind.String()),
					logger.Int("step", i),
				)
				return
			}
		}
		s.emit(Event{Type: EventStep, Job: job, Step: i, Name: step.Name, At: s.clock.Now()})
		s.cue(ctx, step.Cue)
		s.render(ctx, job, step)
	}

	if seq.Linger {
		s.mu.Lock()
		s.linger = &lingering{job: job, dismissal: seq.Dismissal}
		s.mu.Unlock()
	}

	took := s.clock.Since(start)
	metrics.RecordSequencerJob(job.Kind.String(), float64(took.Milliseconds()))
	s.emit(Event{Type: EventJobDone, Job: job, At: s.clock.Now()})
	s.log.Debug(ctx, "job done",
		logger.String("job", job.ID),
		logger.String("entity", job.EntityID),
		logger.String("kind", job.Kind.String()),
		logger.Duration("took", took),
		logger.Bool("lingering", seq.Linger),
	)
}

func (s *Sequencer) render(ctx context.Context, job animation.Job, step animation.Step) {
	if step.Render == nil {
		return
	}
	var err error
	if s.stage.Surface == nil {
		err = animation.ErrElementMissing
	} else {
		err = step.Render(s.stage.Surface)
	}
	if err == nil {
		return
	}
	metrics.RecordStepSkipped(job.Kind.String())
	level := s.log.Warn
	if errors.Is(err, animation.ErrElementMissing) {
		level = s.log.Debug
	}
	level(ctx, "step not rendered",
		logger.String("job", job.ID),
		logger.String("kind", job.Kind.String()),
		logger.String("step", step.Name),
		logger.Error(err),
	)
}

func (s *Sequencer) cue(ctx context.Context, c *animation.Cue) {
	if c == nil || s.stage.Audio == nil {
		return
	}
	if err := s.stage.Audio.Play(c.Sound, c.Volume); err != nil {
		s.audioFailed(ctx, c.Sound, err)
	}
}

func (s *Sequencer) audioFailed(ctx context.Context, sound animation.Sound, err error) {
	metrics.RecordAudioFailure(string(sound))
	s.log.Debug(ctx, "audio failure ignored", logger.String("sound", string(sound)), logger.Error(err))
}

// supersede clears an overlay still lingering from the previous job
// without a fade. Caller holds stageMu.
func (s *Sequencer) supersede(ctx context.Context) {
	s.mu.Lock()
	l := s.linger
	s.linger = nil
	s.mu.Unlock()
	if l == nil {
		return
	}
	s.hide(ctx)
	for _, snd := range []animation.Sound{l.dismissal.Stop, l.dismissal.FadeOut} {
		if snd != "" {
			s.silence(ctx, snd)
		}
	}
	metrics.RecordDismissal(dismissReasonReplace)
}

// Dismiss is the click on a lingering overlay. It hides the overlay and
// settles its audio, fading the music out when the kind asks for it. It
// returns false when nothing is lingering or a job is playing. A job that
// takes the stage first supersedes the overlay the click was aimed at.
func (s *Sequencer) Dismiss(ctx context.Context) bool {
	s.mu.Lock()
	l := s.linger
	busy := s.animating
	s.mu.Unlock()
	if busy || l == nil {
		return false
	}

	s.stageMu.Lock()
	defer s.stageMu.Unlock()

	s.mu.Lock()
	if s.animating || s.linger != l {
		s.mu.Unlock()
		return false
	}
	s.linger = nil
	s.mu.Unlock()

	s.hide(ctx)
	if l.dismissal.Stop != "" {
		s.silence(ctx, l.dismissal.Stop)
	}
	if l.dismissal.FadeOut != "" {
		if s.fadeMusic {
			s.fade(ctx, l.dismissal.FadeOut)
		} else {
			s.silence(ctx, l.dismissal.FadeOut)
		}
	}
	metrics.RecordDismissal(dismissReasonClick)
	s.log.Debug(ctx, "overlay dismissed",
		logger.String("entity", l.job.EntityID),
		logger.String("kind", l.job.Kind.String()),
	)
	return true
}

func (s *Sequencer) hide(ctx context.Context) {
	if s.stage.Surface == nil {
		return
	}
	if err := s.stage.Surface.HideOverlay(); err != nil {
		s.log.Debug(ctx, "overlay not hidden", logger.Error(err))
	}
}

// silence stops sound and restores its channel volume.
func (s *Sequencer) silence(ctx context.Context, sound animation.Sound) {
	if s.stage.Audio == nil {
		return
	}
	if err := s.stage.Audio.Stop(sound); err != nil {
		s.audioFailed(ctx, sound, err)
	}
	if err := s.stage.Audio.SetVolume(sound, s.defaultVolume); err != nil {
		s.audioFailed(ctx, sound, err)
	}
}

// fade lowers sound by fadeStep every fadeInterval until silent, then
// stops it and restores the default volume.
func (s *Sequencer) fade(ctx context.Context, sound animation.Sound) {
	if s.stage.Audio == nil {
		return
	}
	vol, err := s.stage.Audio.Volume(sound)
	if err != nil {
		s.audioFailed(ctx, sound, err)
		s.silence(ctx, sound)
		return
	}

	steps := int(math.Ceil(vol/s.fadeStep - fadeEpsilon))
	for i := 1; i <= steps; i++ {
		select {
		case <-s.clock.After(s.fadeInterval):
		case <-ctx.Done():
			s.silence(ctx, sound)
			return
		}
		v := vol - float64(i)*s.fadeStep
		if i == steps || v < 0 {
			v = 0
		}
		if err := s.stage.Audio.SetVolume(sound, v); err != nil {
			s.audioFailed(ctx, sound, err)
		}
	}
	s.silence(ctx, sound)
}

// WaitIdle blocks until the queue is empty and no job is playing. A
// lingering overlay does not count as playing.
func (s *Sequencer) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Animating reports whether a job is playing.
func (s *Sequencer) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animating
}

// Current returns the playing job.
func (s *Sequencer) Current() (animation.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return animation.Job{}, false
	}
	return *s.current, true
}

// Pending returns the number of jobs waiting behind the current one.
func (s *Sequencer) Pending() int {
	return s.queue.Len()
}

// Lingering returns the kind whose overlay waits for a dismissal.
func (s *Sequencer) Lingering() (rating.Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linger == nil {
		return rating.KindNone, false
	}
	return s.linger.job.Kind, true
}

func (s *Sequencer) emit(e Event) {
	if s.trace != nil {
		s.trace(e)
	}
}
