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

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"homegame/apps/server/internal/audit"
	"homegame/apps/server/internal/config"
	"homegame/apps/server/internal/gateway"
	"homegame/apps/server/internal/httpapi"
	"homegame/apps/server/internal/lobby"
	"homegame/apps/server/internal/logging"
	"homegame/table"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tableCfg, err := cfg.TableConfig()
	if err != nil {
		return err
	}
	reg, err := table.NewRegistry(tableCfg, table.NewSource(0))
	if err != nil {
		return err
	}

	auditService, auditMode, err := audit.NewService(cfg.Audit())
	if err != nil {
		return fmt.Errorf("init audit service: %w", err)
	}
	defer func() { err = multierr.Append(err, auditService.Close()) }()

	gw := gateway.New(cfg.AllowedOrigin, logger.Named("gateway"))
	lby := lobby.New(reg, gw, logger.Named("lobby"))
	defer lby.Stop()
	gw.SetDispatcher(lby)

	recorder := audit.NewRecorder(auditService, logger.Named("audit"))
	lby.AddHandEndHook(func(info lobby.HandEndInfo) {
		recorder.Record(info.TableID, info.Hand, info.EndedAt)
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.NewRouter(httpapi.Deps{
			WebSocket:     gw.HandleWebSocket,
			Routes:        []func(chi.Router){audit.NewHTTPHandler(auditService, logger.Named("audit")).RegisterRoutes},
			AllowedOrigin: cfg.AllowedOrigin,
			Log:           logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("addr", srv.Addr),
		zap.String("audit", auditMode),
		zap.String("turnPolicy", string(tableCfg.TurnPolicy)),
		zap.String("allowedOrigin", cfg.AllowedOrigin),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Int("connections", gw.Len()))

		// Upgraded connections are hijacked and not tracked by Shutdown.
		gw.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
