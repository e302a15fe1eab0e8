// Command api-server runs the EternaVerse simulation service: the
// authenticated HTTP surface, the per-universe step orchestrator and the
// background anomaly sweeper.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/api"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/auth"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/config"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/events"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/locking"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/metrics"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	if cfg.Development() {
		log = log.Level(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo: universe documents.
	mongoCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(mongoCtx, mongooptions.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to mongo")
	}
	defer mongoClient.Disconnect(context.Background())

	repo := universe.NewRepository(mongoClient.Database(cfg.MongoDB), log)
	if err := repo.EnsureIndexes(mongoCtx); err != nil {
		log.Fatal().Err(err).Msg("ensuring indexes")
	}

	// Postgres: user accounts. Optional; without it the auth endpoints are
	// disabled and callers must bring their own tokens.
	var users *auth.Store
	if cfg.PostgresURI != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURI)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to postgres")
		}
		defer pool.Close()
		users = auth.NewStore(pool)
		if err := users.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensuring users schema")
		}
	}

	// Redis: per-universe simulation leases.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	locker := locking.NewRedisLocker(redisClient, locking.DefaultTTL)

	// NATS: best-effort event fan-out.
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.RetryOnFailedConnect(true))
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable, events disabled")
		} else {
			defer nc.Drain()
			publisher = events.NewPublisher(nc, log)
		}
	}

	m := metrics.New()
	runner := sim.NewRunner(repo, locker, publisher, m, log)
	tokens := auth.NewTokens(cfg.JWTSecret)

	server := api.NewServer(api.Config{
		Store:       repo,
		Runner:      runner,
		Users:       users,
		Tokens:      tokens,
		Metrics:     m,
		Log:         log,
		Development: cfg.Development(),
	})

	// Background sweeper: evict stale resolved anomalies from universes near
	// the cap, same rule as the in-request overflow cleanup.
	c := cron.New()
	_, err = c.AddFunc("@every 10m", func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		ids, err := repo.ListAnomalyHeavy(sweepCtx, universe.MaxAnomalies)
		if err != nil {
			log.Warn().Err(err).Msg("sweeper: listing universes")
			return
		}
		for _, id := range ids {
			res, err := runner.SweepAnomalies(sweepCtx, id)
			if err != nil {
				log.Warn().Err(err).Str("universe", id.String()).Msg("sweeper: cleanup failed")
				continue
			}
			if res.Removed > 0 {
				log.Info().Str("universe", id.String()).Int("removed", res.Removed).Msg("sweeper: anomalies evicted")
			}
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("scheduling sweeper")
	}
	c.Start()
	defer c.Stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("api-server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
