package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/watchparty/internal/adapters/http"
	wssignal "github.com/dkeye/watchparty/internal/adapters/signal"
	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/app/orch"
	"github.com/dkeye/watchparty/internal/config"
	healthcheck "github.com/dkeye/watchparty/internal/transport/http"
)

func newServeCmd(configEnv *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
	}
	cmd.Flags().Int("port", 8080, "listen port")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		setupLogger("debug")
		cfg, err := config.Load(*configEnv, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogger(cfg.Mode)
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return run(ctx, cfg)
	}
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	hub := wssignal.NewHub()
	coord := orch.New(hub, app.SimplePolicy{}, orch.Options{
		CleanupTTL:       cfg.CleanupTTL,
		SubtitleMaxBytes: cfg.SubtitleMaxBytes,
	})
	limiter := wssignal.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateInterval)
	ctl := wssignal.NewSignalWSController(coord, hub, limiter, wssignal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:   coord,
		Signal: ctl,
		Health: healthcheck.NewHealthHandler("watchparty", coord, hub),
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("watchparty server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ChatRateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := limiter.Sweep(); n > 0 {
					log.Debug().Str("module", "signal").Int("keys", n).Msg("rate limiter swept")
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		err := srv.Shutdown(shutdownCtx)
		hub.CloseAll()
		if derr := ctl.Drain(shutdownCtx); derr != nil {
			log.Warn().Err(derr).Str("module", "signal").Msg("read pumps still running")
		}
		coord.Shutdown()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
