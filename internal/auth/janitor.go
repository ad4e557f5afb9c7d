package auth

import (
	"context"
	"time"

	"github.com/signalix/phoneauth/internal/metrics"
	"github.com/signalix/phoneauth/internal/repo"
	"go.uber.org/zap"
)

// Janitor periodically removes expired codes and blacklist entries.
type Janitor struct {
	codes     repo.CodeRepo
	blacklist repo.BlacklistRepo
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewJanitor creates a Janitor. Rows are kept for retention after expiry so an
// expired code is still reported as expired instead of unknown.
func NewJanitor(codes repo.CodeRepo, blacklist repo.BlacklistRepo, interval, retention time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		codes:     codes,
		blacklist: blacklist,
		interval:  interval,
		retention: retention,
		logger:    logger.Named("janitor"),
	}
}

// Run purges on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Purge(ctx, time.Now())
		}
	}
}

// Purge removes everything that expired before now minus the retention window.
func (j *Janitor) Purge(ctx context.Context, now time.Time) {
	cutoff := now.Add(-j.retention)

	if n, err := j.codes.PurgeExpired(ctx, cutoff); err != nil {
		j.logger.Error("purge auth codes failed", zap.Error(err))
	} else if n > 0 {
		metrics.PurgedRows.WithLabelValues("auth_codes").Add(float64(n))
		j.logger.Info("purged expired auth codes", zap.Int64("rows", n))
	}

	// Blacklist entries are useless once the token itself has expired.
	if n, err := j.blacklist.PurgeExpired(ctx, now); err != nil {
		j.logger.Error("purge blacklist failed", zap.Error(err))
	} else if n > 0 {
		metrics.PurgedRows.WithLabelValues("blacklist_tokens").Add(float64(n))
		j.logger.Info("purged expired blacklist tokens", zap.Int64("rows", n))
	}
}
