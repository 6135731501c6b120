package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/aimsync/internal/adapters/http/api"
	"github.com/okian/aimsync/internal/adapters/http/swagger"
	"github.com/okian/aimsync/internal/adapters/repository"
	"github.com/okian/aimsync/internal/adapters/watch"
	service "github.com/okian/aimsync/internal/app"
	"github.com/okian/aimsync/internal/config"
	"github.com/okian/aimsync/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func runCommand(parent context.Context, deps Deps, configPath, mode string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(ctx, deps, configPath, mode)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	sheet, err := deps.NewSheet(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	in, err := deps.NewIngestor(ctx, cfg)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithSheet(sheet),
		service.WithIngestor(in),
		service.WithBaselineSpec(baselineSpec(cfg)),
		service.WithDebounce(cfg.Debounce()),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	if cfg.MetricsAddr != "" {
		srv := newHTTPServer(cfg.MetricsAddr, svc)
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "server shutdown failed", logger.Error(err))
			}
		}()
	}

	// One reconciliation always runs before the mode driver takes over.
	startupErr := svc.RunCycle(ctx, "startup")

	switch cfg.RunMode {
	case config.ModeOnce:
		return startupErr
	case config.ModeInterval:
		log.Info(ctx, "polling for new scores", logger.Duration("interval", cfg.PollingInterval()))
		runInterval(ctx, svc, cfg.PollingInterval())
	case config.ModeWatch:
		var opts []watch.Option
		opts = append(opts, watch.WithLogger(log.Named("watch")))
		if cfg.Game == config.GameAimlab {
			opts = append(opts, watch.WithFilter(watch.BaseName(repository.DefaultFileName)))
		}
		if err := watch.New(cfg.WatchDir(), svc, opts...).Run(ctx); err != nil {
			return fmt.Errorf("watch %s: %w", cfg.WatchDir(), err)
		}
	}

	log.Info(ctx, "shutting down")
	return nil
}

// syncer is the part of the service the interval driver needs.
type syncer interface {
	Sync(ctx context.Context, reason string) bool
}

// runInterval requests a cycle every period until ctx is done or the
// service stops accepting requests.
func runInterval(ctx context.Context, svc syncer, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !svc.Sync(ctx, "interval") {
				return
			}
		}
	}
}

func newHTTPServer(addr string, svc api.Dependencies) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc).Register(mux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
