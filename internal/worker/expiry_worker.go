package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-assessment/internal/config"
)

// Expirer closes attempts left IN_PROGRESS after their session ended.
// Implemented by service.AttemptService.
type Expirer interface {
	ExpireStale(ctx context.Context, grace time.Duration) (int, error)
}

// Locker grants one replica the right to run a sweep.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisLocker takes a SET NX lock that expires on its own.
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker creates a Locker backed by rdb.
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// TryLock reports whether this caller now holds key. The lock is never released
// explicitly; it lapses after ttl.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// ExpiryWorker periodically runs the expiry sweep.
type ExpiryWorker struct {
	expirer  Expirer
	locker   Locker
	interval time.Duration
	grace    time.Duration
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker. A nil locker runs every sweep
// locally, which is correct for a single replica.
func NewExpiryWorker(expirer Expirer, locker Locker, interval, grace time.Duration, log zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{
		expirer:  expirer,
		locker:   locker,
		interval: interval,
		grace:    grace,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start sweeps once immediately and then on every tick until ctx is cancelled.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("interval", w.interval).
		Dur("grace", w.grace).
		Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpiryWorker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and reports how many attempts it expired.
func (w *ExpiryWorker) RunOnce(ctx context.Context) int {
	if w.locker != nil {
		// The lock expires just before the next tick so any replica can
		// take it then.
		ok, err := w.locker.TryLock(ctx, config.CacheKey.SweeperLockKey(), w.interval*9/10)
		if err != nil {
			w.log.Warn().Err(err).Msg("Sweeper lock unavailable, sweeping locally")
		} else if !ok {
			w.log.Debug().Msg("Another replica holds the sweeper lock")
			return 0
		}
	}

	n, err := w.expirer.ExpireStale(ctx, w.grace)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Expiry sweep failed")
		}
		return 0
	}
	if n > 0 {
		w.log.Info().Int("expired", n).Msg("Expired stale attempts")
	}
	return n
}
