// Command sweeper expires attempts left in progress after their session ended.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-assessment/internal/config"
	"github.com/stemsi/exstem-assessment/internal/database"
	"github.com/stemsi/exstem-assessment/internal/events"
	"github.com/stemsi/exstem-assessment/internal/logger"
	"github.com/stemsi/exstem-assessment/internal/repository"
	"github.com/stemsi/exstem-assessment/internal/service"
	"github.com/stemsi/exstem-assessment/internal/worker"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	var publisher service.EventPublisher = events.Nop{}
	var locker worker.Locker
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, sweeping without lock or events")
		} else {
			defer rdb.Close()
			publisher = events.NewRedisPublisher(rdb, log)
			locker = worker.NewRedisLocker(rdb)
		}
	}

	attempts := service.NewAttemptService(
		repository.NewSessionRepository(pool),
		repository.NewAttemptRepository(pool),
		repository.NewQuestionBankRepository(pool, nil, cfg.QuestionCacheTTL, log),
		repository.NewClassRepository(pool),
		publisher,
		log,
		cfg.StartConflictRetries,
	)

	w := worker.NewExpiryWorker(attempts, locker, cfg.SweepInterval, cfg.SweepGrace, log)
	if *once {
		n := w.RunOnce(ctx)
		log.Info().Int("expired", n).Msg("Sweep complete")
		return
	}
	w.Start(ctx)
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
