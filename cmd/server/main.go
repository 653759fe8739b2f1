package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelratings/api"
	"reelratings/config"
	"reelratings/handlers"
	"reelratings/services/cache"
	"reelratings/services/catalog"
	"reelratings/services/details"
	"reelratings/services/ratings"
	"reelratings/services/scheduler"
	"reelratings/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	store, err := cache.NewStore(cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Ping(context.Background()); err != nil {
		// The cache layer fails soft everywhere, so a cold Redis only
		// costs performance, not availability.
		log.Printf("[server] redis unreachable at startup: %v", err)
	} else {
		log.Printf("[server] connected to redis")
	}

	catalogClient := catalog.NewClient(cfg.TMDB.APIKey, nil)
	ratingsService := ratings.NewService(ratings.NewScraper(nil))
	detailsService := details.NewService(
		catalogClient,
		ratingsService,
		store,
		cfg.Refresh.TargetDuration,
		cfg.Refresh.MaxConcurrent,
	)

	sched := scheduler.NewService(detailsService, store, cfg.Refresh.CronSpec, cfg.Refresh.LockTTL)
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	router := utils.NewRouter(cfg.Server.AllowedOrigins)
	router.Use(api.RecoveryMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.RateLimitMiddleware(api.NewIPRateLimiter(rate.Limit(5), 10)))

	titleHandler := handlers.NewTitleHandler(detailsService, sched, cfg.Refresh.AdminKey)
	titleHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("[server] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Printf("[server] stopped")
	return nil
}

// setupLogging sends logs to stderr and, when configured, to a rotating file.
func setupLogging(cfg config.LogConfig) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.File == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     28,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
