package triggerfeed

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/internal/domain/rating"
	"github.com/okian/monopad/pkg/logger"
)

// upBias is the share of increases, in percent. Slightly above half so
// entities drift toward the top and the maxed overlay gets exercised.
const upBias = 55

// randIntn returns a uniform int in [0, n) using crypto/rand.
func randIntn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Plan is the per-worker submission schedule. Every trigger of an entity
// lands in the same lane, so the service sees them in lane order.
type Plan struct {
	Lanes   [][]Trigger
	Replays int
}

// Submissions returns the total number of requests in the plan.
func (p Plan) Submissions() int {
	n := 0
	for _, lane := range p.Lanes {
		n += len(lane)
	}
	return n
}

// generatePlan creates cfg.Triggers triggers spread over ids and replays
// cfg.Replays of them directly after their first submission.
func generatePlan(ctx context.Context, cfg *Config, ids []string) (Plan, error) {
	if len(ids) == 0 {
		return Plan{}, fmt.Errorf("no entities to trigger")
	}
	workers := minInt(maxInt(cfg.Workers, 1), len(ids))
	lane := make(map[string]int, len(ids))
	for i, id := range ids {
		lane[id] = i % workers
	}

	replay := make(map[int]bool, cfg.Replays)
	for len(replay) < minInt(cfg.Replays, cfg.Triggers) {
		replay[randIntn(cfg.Triggers)] = true
	}

	plan := Plan{Lanes: make([][]Trigger, workers), Replays: len(replay)}
	for i := 0; i < cfg.Triggers; i++ {
		if err := ctx.Err(); err != nil {
			return Plan{}, fmt.Errorf("context cancelled during trigger generation: %w", err)
		}
		t := generateSingleTrigger(ids[randIntn(len(ids))])
		l := lane[t.EntityID]
		plan.Lanes[l] = append(plan.Lanes[l], t)
		if replay[i] {
			plan.Lanes[l] = append(plan.Lanes[l], t)
		}
	}

	logger.Get().Info(ctx, "generated triggers",
		logger.Int("triggers", cfg.Triggers),
		logger.Int("replays", plan.Replays),
		logger.Int("lanes", workers))
	return plan, nil
}

// generateSingleTrigger creates a trigger with a fresh marker signature.
func generateSingleTrigger(entityID string) Trigger {
	dir := model.Decrease
	if randIntn(100) < upBias {
		dir = model.Increase
	}
	return Trigger{
		EntityID:  entityID,
		Signature: "marker-" + uuid.NewString(),
		Direction: dir,
	}
}

// expectedRatings replays the plan locally. Repeated signatures are
// skipped the way the service skips them.
func expectedRatings(plan Plan, ids []string) map[string]int {
	want := make(map[string]int, len(ids))
	for _, id := range ids {
		want[id] = rating.Initial
	}
	seen := make(map[string]bool)
	for _, lane := range plan.Lanes {
		for _, t := range lane {
			if seen[t.EntityID+"|"+t.Signature] {
				continue
			}
			seen[t.EntityID+"|"+t.Signature] = true
			if t.Direction == model.Increase {
				want[t.EntityID] = rating.Clamp(rating.NextUp(want[t.EntityID]))
			} else {
				want[t.EntityID] = rating.Clamp(rating.NextDown(want[t.EntityID]))
			}
		}
	}
	return want
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
