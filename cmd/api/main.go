package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lrazine99/purple-dog-sub000/internal/api/rest"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/cache"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/config"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/database"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/notification"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/repository"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/telemetry"
	"github.com/lrazine99/purple-dog-sub000/internal/service/auction"
	"github.com/lrazine99/purple-dog-sub000/internal/service/bidding"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var limiter cache.RateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		limiter = cache.NewRedisRateLimiter(redisClient, logger)
	} else {
		limiter = cache.NewLocalRateLimiter(cfg.Auction.RateLimit.Burst)
	}

	var notifier interface {
		Notify(ctx context.Context, email, subject, body string) error
	}
	if cfg.SMTP.Enabled {
		notifier = notification.NewSMTPMailer(cfg.SMTP, logger)
	} else {
		notifier = notification.NoopNotifier{}
	}

	txManager := repository.NewTxManager(pool, cfg.Auction.TxMaxRetries)
	bidRepo := repository.NewBidRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	users := repository.NewUserDirectory(pool)
	metrics := newMetricsCollector()

	biddingSvc := bidding.NewService(txManager, bidRepo, itemRepo, users, notifier, metrics, logger)

	finalizer := auction.NewFinalizer(txManager, itemRepo, bidRepo, orderRepo, users, notifier, metrics, logger)
	sweeper := auction.NewSweeper(itemRepo, finalizer, metrics, logger, cfg.Auction.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	server := rest.NewServer(cfg, biddingSvc, limiter, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
