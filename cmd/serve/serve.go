// Package serve implements the long-running API server command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nordnytt/aggregator/cmd/common"
	"github.com/nordnytt/aggregator/internal/api"
	"github.com/nordnytt/aggregator/internal/scheduler"
	"github.com/nordnytt/aggregator/internal/store"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Command creates the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic ingestion scheduler",
		Long: `Serve exposes the stored articles over HTTP, accepts manual ingestion
triggers, and runs ingestion on the configured interval until
interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			return run(cmd.Context(), deps)
		},
	}
}

// run starts the server and scheduler and blocks until shutdown.
func run(ctx context.Context, deps *common.Deps) error {
	log := deps.Logger

	db, err := common.OpenDatabase(ctx, &deps.Config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	articles := store.NewPostgresStore(db)
	pipe := common.BuildPipeline(deps, articles)

	sched := scheduler.New(pipe, log)
	interval := time.Duration(deps.Config.Fetch.IntervalMinutes) * time.Minute
	if err := sched.Start(interval); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := &http.Server{
		Addr:              deps.Config.Server.Address,
		Handler:           api.NewRouter(&deps.Config.Server, articles, pipe, log),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "address", server.Addr)

		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		log.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}
