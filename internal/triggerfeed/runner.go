// Package triggerfeed drives a running service with concurrent triggers and
// checks the resulting ratings against a local replay.
package triggerfeed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/monopad/pkg/logger"
)

// Run executes a complete feed run and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting trigger feed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("entities", cfg.Entities),
		logger.Int("triggers", cfg.Triggers),
		logger.Int("replays", cfg.Replays),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	ids, err := registerEntities(ctx, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("entity registration failed: %w", err)
	}

	plan, err := generatePlan(ctx, cfg, ids)
	if err != nil {
		return stats, fmt.Errorf("trigger generation failed: %w", err)
	}

	submitTriggers(ctx, cfg, plan, stats)

	// Ratings are committed before the trigger call returns, so there is
	// no need to wait for the animations.
	if err := verifyResults(ctx, cfg, expectedRatings(plan, ids), stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	return readJSON(resp, http.StatusOK, nil)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.TriggersSubmitted > 0 {
		ok := stats.TriggersSubmitted - stats.TriggersFailed
		successRate = float64(ok) / float64(stats.TriggersSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.TriggersSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("entitiesRegistered", stats.EntitiesRegistered),
		logger.Int("triggersSubmitted", stats.TriggersSubmitted),
		logger.Int("triggersAccepted", stats.TriggersAccepted),
		logger.Int("triggersUnchanged", stats.TriggersUnchanged),
		logger.Int("triggersDuplicate", stats.TriggersDuplicate),
		logger.Int("triggersFailed", stats.TriggersFailed),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("rosterEntries", stats.RosterEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("triggersPerSecond", perSecond))
}
