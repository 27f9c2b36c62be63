// Command sparkify-etl loads the Sparkify song metadata and activity logs
// into PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/justestif/sparkify-etl/internal/config"
	"github.com/justestif/sparkify-etl/internal/db"
	"github.com/justestif/sparkify-etl/internal/etl"
	"github.com/justestif/sparkify-etl/internal/logging"
	"github.com/justestif/sparkify-etl/internal/metrics"
	"github.com/justestif/sparkify-etl/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sparkify-etl",
		Short:         "Load song and log data into the Sparkify warehouse",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.Flags())
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, flags *pflag.FlagSet) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		RunID:  runID,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, db.WithLogger(logger.Named("db")))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	m := metrics.New()
	driver := etl.NewDriver(database,
		etl.DefaultPhases(cfg.SongData, cfg.LogData, cfg.Suffix, logger, m),
		etl.WithLogger(logger),
		etl.WithRecorder(m),
	)

	if cfg.Metrics.Listen != "" {
		srv := web.NewServer(web.ServerConfig{
			Addr:     cfg.Metrics.Listen,
			RunID:    runID,
			Status:   driver,
			Gatherer: m.Registry(),
			Logger:   logger.Named("web"),
		})
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	_, runErr := driver.Run(ctx)
	m.ObserveRun(time.Since(start), runErr == nil)

	if cfg.Metrics.Pushgateway != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := m.Push(pushCtx, cfg.Metrics.Pushgateway); err != nil {
			logger.Warn("pushing metrics failed", zap.Error(err))
		}
		cancel()
	}

	if runErr != nil {
		logger.Error("run failed", zap.Error(runErr))
		return fmt.Errorf("running etl: %w", runErr)
	}
	logger.Info("run complete", zap.Duration("duration", time.Since(start)))
	return nil
}
