package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/postgraph/dialect"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL API over HTTP",
		Long: `Build the GraphQL schema from the configured catalog and serve it.

POST /graphql executes queries, GET / serves a GraphQL playground. When
server.watchCatalog is set, the schema is rebuilt whenever the catalog
file changes.

Environment variables:
  POSTGRAPH_DATABASE_URL   - overrides database.url`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) openDriver() (*sql.StatsDriver, dialect.Driver, error) {
	if a.cfg.Database.URL == "" {
		return nil, nil, errors.New("database.url is required to serve")
	}
	db, err := sql.Open(dialect.Postgres, a.cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.DB().SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	stats := sql.NewStatsDriver(db,
		sql.WithSlowThreshold(a.cfg.Database.SlowQueryThreshold),
		sql.WithSlowQueryLogger(a.logger),
	)
	if a.cfg.Database.Debug {
		return stats, sql.NewDebugDriver(stats, a.logger), nil
	}
	return stats, stats, nil
}

func (a *app) serve(ctx context.Context) error {
	s, err := a.buildSchema()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	stats, drv, err := a.openDriver()
	if err != nil {
		return err
	}
	defer func() {
		a.logger.Info("database statements", "stats", stats.Stats().Snapshot())
		drv.Close()
	}()

	h := server.NewHandler(s, drv,
		server.WithLogger(a.logger),
		server.WithStatementTimeout(a.cfg.Database.StatementTimeout),
	)
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      server.NewMux(h),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		a.logger.Info("serving graphql", "addr", srv.Addr, "types", len(s.TypeMap()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if a.cfg.Server.WatchCatalog {
		eg.Go(func() error {
			return server.Watch(ctx, a.cfg.Catalog, h, a.buildSchema, a.logger)
		})
	}
	return eg.Wait()
}
