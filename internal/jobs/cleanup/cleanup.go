package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type messagePurger interface {
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sponsorPurger interface {
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job hard-deletes soft-deleted messages past retention and sponsor cards
// past their end date. Photo access grants are not swept: their expiry is
// recomputed at read time from stored fields.
type Job struct {
	messages  messagePurger
	sponsors  sponsorPurger
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(messages messagePurger, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		messages:  messages,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) AttachSponsorPurge(sponsors sponsorPurger) {
	j.sponsors = sponsors
}

func (j *Job) Run(ctx context.Context) error {
	if j.messages != nil {
		cutoff := j.now().UTC().Add(-j.retention)
		purged, err := j.messages.PurgeDeletedBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purge deleted messages: %w", err)
		}
		if purged > 0 {
			j.logger.Info("purged deleted messages", zap.Int64("count", purged))
		}
	}

	if j.sponsors != nil {
		purged, err := j.sponsors.PurgeExpiredBefore(ctx, j.now().UTC())
		if err != nil {
			return fmt.Errorf("purge expired sponsor cards: %w", err)
		}
		if purged > 0 {
			j.logger.Info("purged expired sponsor cards", zap.Int64("count", purged))
		}
	}

	return nil
}

// RunLoop executes Run on the interval until ctx is cancelled. One failing
// pass is logged and does not stop the loop.
func (j *Job) RunLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("cleanup pass failed", zap.Error(err))
			}
		}
	}
}
