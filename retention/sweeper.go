// Package retention prunes aged, low-importance events from the audit
// trail on a periodic schedule.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// prunableSeverities are the only severities the sweeper ever deletes.
// High and critical events are retained regardless of age.
var prunableSeverities = []types.Severity{types.SeverityLow, types.SeverityMedium}

// Sweeper deletes events older than a severity-tiered age threshold. It
// operates in bounded batches so it never holds a store-wide lock during
// ingestion or queries, and it is safe to run concurrently with every
// other component.
type Sweeper struct {
	store     interfaces.EventStore
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSweeper creates a retention sweeper with the given deletion batch
// size.
func NewSweeper(store interfaces.EventStore, batchSize int) *Sweeper {
	if batchSize < 1 {
		batchSize = 1000
	}
	return &Sweeper{
		store:     store,
		batchSize: batchSize,
		now:       time.Now,
		logger:    log.With().Str("component", "audit_retention").Logger(),
	}
}

// Sweep deletes low and medium severity events older than daysToKeep and
// returns the number deleted. Idempotent: an immediate second run finds
// an empty qualifying set and deletes nothing.
func (s *Sweeper) Sweep(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep < 1 {
		return 0, types.NewValidationError("daysToKeep", "must be at least 1")
	}

	cutoff := s.now().UTC().AddDate(0, 0, -daysToKeep)
	filter := types.Filter{
		Severities: prunableSeverities,
		Before:     cutoff,
	}

	deleted, err := s.store.DeleteByFilter(ctx, filter, s.batchSize)
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		s.logger.Info().
			Int64("deleted", deleted).
			Int("daysToKeep", daysToKeep).
			Time("cutoff", cutoff).
			Msg("Retention sweep completed")
	}
	return deleted, nil
}

// Run sweeps on the given interval until ctx is cancelled. Failures are
// logged and the next tick retries.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration, daysToKeep int) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx, daysToKeep); err != nil {
				s.logger.Warn().
					Err(err).
					Msg("Retention sweep failed, will retry next interval")
			}
		case <-ctx.Done():
			return
		}
	}
}
