package triggerfeed

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/monopad/pkg/logger"
)

// maxRosterFetch stays under the service's default roster cap.
const maxRosterFetch = 500

// ErrMismatch is returned when the service disagrees with the local replay.
var ErrMismatch = errors.New("rating mismatch")

// verifyResults compares every entity with its expected rating and checks
// the roster order.
func verifyResults(ctx context.Context, cfg *Config, want map[string]int, stats *Stats) error {
	client := newHTTPClient(cfg.Timeout)

	for id, rating := range want {
		got, err := fetchEntity(ctx, client, cfg.BaseURL, id)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", id, err)
		}
		if got.Rating != rating {
			stats.Mismatches++
			logger.Get().Warn(ctx, "rating mismatch",
				logger.String("entity", id),
				logger.Int("want", rating),
				logger.Int("got", got.Rating))
		}
	}

	roster, err := fetchRoster(ctx, client, cfg.BaseURL, minInt(maxInt(len(want), 1), maxRosterFetch))
	if err != nil {
		return fmt.Errorf("fetch roster: %w", err)
	}
	stats.RosterEntries = len(roster)
	if err := verifyRosterOrder(roster); err != nil {
		return err
	}

	if stats.Mismatches > 0 {
		return fmt.Errorf("%w: %d of %d entities", ErrMismatch, stats.Mismatches, len(want))
	}
	logger.Get().Info(ctx, "results verified", logger.Int("entities", len(want)), logger.Int("roster", len(roster)))
	return nil
}

// verifyRosterOrder checks rating-descending order and shared dense ranks.
func verifyRosterOrder(roster []Entry) error {
	for i := 1; i < len(roster); i++ {
		prev, cur := roster[i-1], roster[i]
		switch {
		case cur.Rating > prev.Rating:
			return fmt.Errorf("roster not sorted: entry %d rates above entry %d", i, i-1)
		case cur.Rating == prev.Rating && cur.Rank != prev.Rank:
			return fmt.Errorf("roster entries %d and %d share a rating but not a rank", i-1, i)
		case cur.Rating < prev.Rating && cur.Rank != prev.Rank+1:
			return fmt.Errorf("roster rank gap between entries %d and %d", i-1, i)
		}
	}
	return nil
}
