package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"famledger/internal/amqp"
	"famledger/internal/config"
	apphttp "famledger/internal/http"
	"famledger/internal/log"
	"famledger/internal/seed"
	"famledger/internal/services"
	"famledger/internal/ws"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	tracker := services.New(logger)
	if cfg.Seed {
		if err := tracker.Seed(seed.Members(), seed.Wallets(), seed.Categories()); err != nil {
			logger.Error("Seeding failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Seeded default registries")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()
	hubChanges, cancelHubSub := tracker.Events().Subscribe(64)
	defer cancelHubSub()

	// AMQP publication is optional; the tracker is fully functional
	// without a broker.
	var publisher *amqp.Publisher
	if cfg.AMQPURL != "" {
		var err error
		publisher, err = amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		logger.Info("AMQP change publication enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	srv := apphttp.NewServer(":"+cfg.Port, tracker, hub, apphttp.Options{
		InsightsCacheSize:  cfg.InsightsCacheSize,
		InsightsCacheTTL:   cfg.InsightsCacheTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(hub.Run(gctx, hubChanges))
	})

	if publisher != nil {
		amqpChanges, cancelSub := tracker.Events().Subscribe(256)
		defer cancelSub()
		g.Go(func() error {
			return ignoreCanceled(publisher.Forward(gctx, amqpChanges))
		})
	}

	g.Go(func() error {
		logger.Info("Starting famledger server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
