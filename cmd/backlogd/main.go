// Command backlogd serves the backlog tracker HTTP API and live feed.
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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/backlog/internal/api"
	"github.com/persistorai/backlog/internal/config"
	"github.com/persistorai/backlog/internal/db"
	"github.com/persistorai/backlog/internal/db/migrations"
	"github.com/persistorai/backlog/internal/dbpool"
	"github.com/persistorai/backlog/internal/plugin"
	"github.com/persistorai/backlog/internal/plugins"
	"github.com/persistorai/backlog/internal/service"
	"github.com/persistorai/backlog/internal/store"
	"github.com/persistorai/backlog/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:          "backlogd",
		Short:        "Backlog tracker server",
		Version:      config.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and serve the API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger from the configured level and format.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log, nil
}

func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func runMigrate(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	return db.RunMigrations(ctx, cfg.DatabaseURL.Value(), log, migrations.FS)
}

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"version": config.Version,
		"addr":    cfg.Addr(),
		"plugins": cfg.Plugins,
	}).Info("starting backlogd")

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), dbpool.Options{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg.DatabaseURL.Value(), log, migrations.FS); err != nil {
		return err
	}

	hub := ws.NewHub(log)

	registry := plugin.NewRegistry(log)
	plugins.Register(registry, cfg.Zulip, hub, log)
	set := registry.Build(cfg.Plugins)

	base := store.Base{DB: pool, Log: log}
	projects := service.NewProjectService(store.NewProjectStore(base), set.Projects, log)
	backlogs := service.NewBacklogService(store.NewBacklogStore(base), set.Backlogs, log)
	audits := service.NewAuditService(store.NewAuditStore(base))

	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	g, gctx := errgroup.WithContext(ctx)

	router := api.NewRouter(gctx, &api.RouterDeps{
		Log:           log,
		DB:            pool,
		Hub:           hub,
		Projects:      projects,
		Backlogs:      backlogs,
		Audits:        audits,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		SchemaVersion: db.SchemaVersion(),
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
		MaxBodyBytes:  cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Shutdown()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
