// Command server bootstraps the payment intermediary: load config, connect
// to Redis, wire the router/breakers/probe/worker pool, and serve the
// ingress HTTP API. Adapted from the teacher's main.go, generalized from a
// single hardcoded MTN provider into the default+fallback wiring spec.md
// requires.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kaylee-dev/payment-intermediary/internal/config"
	"github.com/kaylee-dev/payment-intermediary/internal/health"
	"github.com/kaylee-dev/payment-intermediary/internal/ingress"
	"github.com/kaylee-dev/payment-intermediary/internal/ledger"
	"github.com/kaylee-dev/payment-intermediary/internal/logging"
	"github.com/kaylee-dev/payment-intermediary/internal/processor"
	"github.com/kaylee-dev/payment-intermediary/internal/queue"
	"github.com/kaylee-dev/payment-intermediary/internal/router"
	"github.com/kaylee-dev/payment-intermediary/internal/summary"
	"github.com/kaylee-dev/payment-intermediary/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Unrecoverable: missing required config aborts startup per
		// spec.md §6's exit-code contract.
		println("fatal: " + err.Error())
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 1*time.Second)
	if err := redisClient.Ping(bootCtx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	cancelBoot()

	q := queue.NewRedisQueue(redisClient, log)
	l := ledger.NewRedisLedger(redisClient, log)
	rt := router.New(cfg.DefaultProcessorURL, cfg.FallbackProcessorURL)
	proc := processor.New(l, log)
	probe := health.New(cfg.DefaultProcessorURL, cfg.FallbackProcessorURL, rt, log)
	pool := worker.New(cfg.WorkerPoolSize, q, l, rt, proc, log)
	summarySvc := summary.New(l)
	handler := ingress.New(q, summarySvc, l, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go probe.Run(ctx)
	go pool.Run(ctx)

	server := &http.Server{
		Addr:        ":8080",
		Handler:     ingress.NewRouter(handler),
		IdleTimeout: cfg.ServerKeepalive,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error during server shutdown")
		}
	}()

	log.Info().Str("addr", server.Addr).Int("workers", cfg.WorkerPoolSize).Msg("payment intermediary starting")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed to bind")
	}
}
