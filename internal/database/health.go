package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthReport is the dependency status served on /health.
type HealthReport struct {
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

// OK reports whether the primary store is reachable. Redis is advisory.
func (h HealthReport) OK() bool {
	return h.Postgres == "ok"
}

// Check pings PostgreSQL and, when configured, Redis.
func Check(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	report := HealthReport{Postgres: "ok", Redis: "disabled"}
	if err := pool.Ping(ctx); err != nil {
		report.Postgres = err.Error()
	}
	if rdb != nil {
		report.Redis = "ok"
		if err := rdb.Ping(ctx).Err(); err != nil {
			report.Redis = err.Error()
		}
	}
	return report
}
