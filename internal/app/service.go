// Package service composes the rating store, the trust adapter and the
// animation pipeline into the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/okian/monopad/internal/adapters/audio"
	"github.com/okian/monopad/internal/adapters/mq/queue"
	"github.com/okian/monopad/internal/adapters/mq/sequencer"
	"github.com/okian/monopad/internal/adapters/overlay"
	"github.com/okian/monopad/internal/adapters/repository"
	"github.com/okian/monopad/internal/domain/animation"
	"github.com/okian/monopad/internal/domain/ledger"
	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/internal/domain/trust"
	"github.com/okian/monopad/internal/domain/types"
	"github.com/okian/monopad/pkg/logger"
	"github.com/okian/monopad/pkg/metrics"
)

var (
	// ErrAlreadyExists is returned when registering a taken entity id.
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrInvalidInput is returned for malformed requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotStarted is returned by operations that need the sequencer running.
	ErrNotStarted = errors.New("service not started")
)

// Service owns the rating pipeline: store, trust adapter, animation queue,
// sequencer, overlay surface and audio player.
type Service struct {
	mu sync.RWMutex

	// opMu serializes load, mutate, persist and enqueue so job order
	// matches rating order.
	opMu sync.Mutex

	store   repository.Store
	queue   *queue.InMemoryQueue
	seq     *sequencer.Sequencer
	surface *overlay.Surface
	player  *audio.Player
	hub     *overlay.Hub
	adapter *trust.Adapter

	clock  clockwork.Clock
	logger logger.Logger
	trace  func(sequencer.Event)

	queueCapacity int
	ledgerSize    int
	fadeInterval  time.Duration
	fadeStep      float64
	defaultVolume float64
	fadeMusic     bool

	started  bool
	cancel   context.CancelFunc
	runDone  chan struct{}
	stopOnce sync.Once
}

// New constructs a Service and wires its components. Nothing runs until
// Start.
func New(opts ...Option) *Service {
	s := &Service{
		clock:         clockwork.NewRealClock(),
		fadeInterval:  15 * time.Millisecond,
		fadeStep:      0.05,
		defaultVolume: 0.5,
		fadeMusic:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.hub == nil {
		s.hub = overlay.NewHub(overlay.WithHubClock(s.clock))
	}

	s.surface = overlay.NewSurface(overlay.WithPublisher(s.hub), overlay.WithClock(s.clock))
	s.player = audio.NewPlayer(
		audio.WithPublisher(s.hub),
		audio.WithDefaultVolume(s.defaultVolume),
		audio.WithClock(s.clock),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueCapacity))

	seqOpts := []sequencer.Option{
		sequencer.WithClock(s.clock),
		sequencer.WithFade(s.fadeInterval, s.fadeStep),
		sequencer.WithDefaultVolume(s.defaultVolume),
		sequencer.WithMusicFade(s.fadeMusic),
	}
	if s.trace != nil {
		seqOpts = append(seqOpts, sequencer.WithTrace(s.trace))
	}
	s.seq = sequencer.New(s.queue, animation.Stage{Surface: s.surface, Audio: s.player}, seqOpts...)

	s.adapter = trust.New(trust.PersistFunc(s.persist), s.seq,
		trust.WithRefresher(s.refresh),
	)
	return s
}

// Start launches the sequencer.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.queue.IsClosed() {
		return fmt.Errorf("start: %w", queue.ErrClosed)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.runDone = make(chan struct{})
	go func() {
		defer close(s.runDone)
		if err := s.seq.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(runCtx, "sequencer stopped", logger.Error(err))
		}
	}()

	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateEntitiesTotal(n)
	}
	s.started = true
	s.logger.Info(ctx, "monopad service started",
		logger.Int("queueCapacity", s.queueCapacity),
		logger.Int("ledgerSize", s.ledgerSize),
		logger.Duration("fadeInterval", s.fadeInterval),
	)
	return nil
}

// Stop halts the sequencer, closes the queue, the overlay feed and the
// store. A stopped service cannot be restarted.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		ctx := context.Background()
		s.logger.Info(ctx, "stopping monopad service...")

		if s.started {
			s.cancel()
			<-s.runDone
		}
		_ = s.queue.Close()
		s.hub.Stop()
		if closer, ok := s.store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn(ctx, "store close failed", logger.Error(err))
			}
		}
		s.started = false
		s.logger.Info(ctx, "monopad service stopped")
	})
}

// Register adds an entity at the initial rating. An empty id is generated.
func (s *Service) Register(ctx context.Context, id, name string) (*model.Entity, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.store.Get(ctx, id); err == nil {
		return nil, fmt.Errorf("register %s: %w", id, ErrAlreadyExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("register %s: %w", id, err)
	}

	var opts []ledger.Option
	if s.ledgerSize > 0 {
		opts = append(opts, ledger.WithMaxSize(s.ledgerSize))
	}
	e := model.NewEntity(id, name, opts...)
	e.CreatedAt = s.clock.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	if err := s.store.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("register %s: %w", id, err)
	}
	s.logger.Info(ctx, "entity registered", logger.String("entity", id), logger.String("name", name))
	return e.Clone(), nil
}

// Increase steps an entity's rating up.
func (s *Service) Increase(ctx context.Context, id string) (trust.Outcome, error) {
	return s.mutate(ctx, id, func(e *model.Entity) (trust.Outcome, error) {
		return s.adapter.Increase(ctx, e)
	})
}

// Decrease steps an entity's rating down.
func (s *Service) Decrease(ctx context.Context, id string) (trust.Outcome, error) {
	return s.mutate(ctx, id, func(e *model.Entity) (trust.Outcome, error) {
		return s.adapter.Decrease(ctx, e)
	})
}

// Trigger applies a change delivered by a trigger source. A signature the
// entity has already consumed is reported as a duplicate.
func (s *Service) Trigger(ctx context.Context, t model.Trigger) (trust.Outcome, error) {
	if strings.TrimSpace(t.Signature) == "" {
		return trust.Outcome{}, fmt.Errorf("%w: signature is required", ErrInvalidInput)
	}
	if !t.Direction.Valid() {
		return trust.Outcome{}, fmt.Errorf("%w: %w", ErrInvalidInput, model.ErrUnknownDirection)
	}
	return s.mutate(ctx, t.EntityID, func(e *model.Entity) (trust.Outcome, error) {
		return s.adapter.Apply(ctx, e, t.Signature, t.Direction)
	})
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*model.Entity) (trust.Outcome, error)) (trust.Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	e, err := s.store.Get(ctx, id)
	if err != nil {
		return trust.Outcome{}, fmt.Errorf("load %s: %w", id, err)
	}
	return fn(e)
}

// persist is the adapter's persistence collaborator.
func (s *Service) persist(ctx context.Context, subj trust.Subject) error {
	e, ok := subj.(*model.Entity)
	if !ok {
		return fmt.Errorf("persist %s: unexpected subject %T", subj.SubjectID(), subj)
	}
	e.UpdatedAt = s.clock.Now().UTC()
	return s.store.Save(ctx, e)
}

// refresh tells open detail views that an entity changed.
func (s *Service) refresh(_ context.Context, entityID string) {
	s.hub.Publish(overlay.Frame{Type: overlay.FrameRefresh, EntityID: entityID, At: s.clock.Now()})
}

// Entity returns one entity.
func (s *Service) Entity(ctx context.Context, id string) (*model.Entity, error) {
	return s.store.Get(ctx, id)
}

// Rank returns the roster row of one entity.
func (s *Service) Rank(ctx context.Context, id string) (types.Entry, error) {
	return s.store.Rank(ctx, id)
}

// Roster returns the entities ordered by rating, best first. A limit of
// zero returns everyone.
func (s *Service) Roster(ctx context.Context, limit int) ([]types.Entry, error) {
	return s.store.Roster(ctx, limit)
}

// Remove deletes an entity from the roster. Animations already queued for
// it still play.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	s.logger.Info(ctx, "entity removed", logger.String("entity", id))
	s.refresh(ctx, id)
	return nil
}

// Dismiss is the click on a lingering overlay.
func (s *Service) Dismiss(ctx context.Context) bool {
	return s.seq.Dismiss(ctx)
}

// Overlay returns the current overlay state.
func (s *Service) Overlay() overlay.Snapshot {
	return s.surface.Snapshot()
}

// Sounds returns the audio channels.
func (s *Service) Sounds() []audio.Channel {
	return s.player.Channels()
}

// Surface exposes the overlay surface, for hosts that detach elements.
func (s *Service) Surface() *overlay.Surface {
	return s.surface
}

// Player exposes the audio player, for hosts that unload assets.
func (s *Service) Player() *audio.Player {
	return s.player
}

// Subscribe streams overlay frames to conn, starting with the current
// state.
func (s *Service) Subscribe(conn *websocket.Conn) error {
	snap := s.surface.Snapshot()
	return s.hub.Register(conn, overlay.Frame{Type: overlay.FrameOverlay, Overlay: &snap, At: s.clock.Now()})
}

// Unsubscribe stops streaming to conn.
func (s *Service) Unsubscribe(conn *websocket.Conn) {
	s.hub.Unregister(conn)
}

// WaitIdle blocks until every queued animation has played.
func (s *Service) WaitIdle(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return s.seq.WaitIdle(ctx)
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	metrics.UpdateEntitiesTotal(n)

	stats := types.Stats{
		Entities:  n,
		Pending:   s.seq.Pending(),
		Animating: s.seq.Animating(),
		Overlay:   s.hub.Clients(),
	}
	if job, ok := s.seq.Current(); ok {
		stats.Current = job.Kind.String()
	}
	if kind, ok := s.seq.Lingering(); ok {
		stats.Lingering = kind.String()
	}
	metrics.UpdateQueueDepth(stats.Pending)
	return stats, nil
}
