package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tutortoise/stackblur-service/raster"
	"github.com/Tutortoise/stackblur-service/stackblur"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Debug, cfg.LogFile)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newAppState(cfg *Config, logger *zap.Logger) (*AppState, error) {
	filter, err := raster.ParseFilter(cfg.ResizeFilter)
	if err != nil {
		return nil, err
	}
	format, err := raster.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	blurrer := stackblur.NewBlurrer(
		stackblur.WithThreads(cfg.Threads),
		stackblur.WithLogger(logger.Named("stackblur")),
	)

	return &AppState{
		Config:  cfg,
		Blurrer: blurrer,
		Logger:  logger,
		Filter:  filter,
		Format:  format,
	}, nil
}

func run(cfg *Config, logger *zap.Logger) error {
	state, err := newAppState(cfg, logger)
	if err != nil {
		return err
	}
	// closed after the server has drained so in-flight requests can finish
	defer state.Blurrer.Close()

	srv := &http.Server{
		Handler:      newRouter(state),
		Addr:         cfg.Addr,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.Int("workers", state.Blurrer.Pool().Size()),
			zap.Int("default_radius", cfg.DefaultRadius),
			zap.Float64("resize_ratio", cfg.ResizeRatio))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
