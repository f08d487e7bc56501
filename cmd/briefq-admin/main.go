package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/briefq/briefq/internal/bootstrap"
	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/migrate"
)

const defaultMigrationTimeout = 5 * time.Minute

// queueAdmin is the slice of the queue service the CLI drives.
type queueAdmin interface {
	Stats(ctx context.Context) ([]*model.QueueStats, error)
	List(ctx context.Context, opts model.EntryListOptions) ([]*model.QueueEntry, error)
	Retry(ctx context.Context, id string) error
}

// jobProducer is the slice of the producer service the CLI drives.
type jobProducer interface {
	SubmitNews(ctx context.Context, note string) (*model.SubmitResult, error)
	RetryPending(ctx context.Context, opts model.RetryPendingOptions) ([]*model.SubmitResult, error)
}

// adminDeps holds what a command needs. Close releases connections.
type adminDeps struct {
	Queue    queueAdmin
	Producer jobProducer
	Migrate  func(ctx context.Context) error
	// MigrationStatus lists embedded migrations and when they were applied.
	MigrationStatus func(ctx context.Context) ([]migrate.Migration, error)
	Close           func() error
}

// depsFactory builds adminDeps on demand so --help never touches the network.
type depsFactory func(ctx context.Context) (*adminDeps, error)

func main() {
	logger := bootstrap.InitLogger("info")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(liveDeps(logger))
	if err := root.ExecuteContext(ctx); err != nil {
		logger.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(factory depsFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "briefq-admin",
		Short:         "Operate the briefq job queues",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(factory),
		newStatsCmd(factory),
		newListCmd(factory),
		newRetryCmd(factory),
		newRetryPendingCmd(factory),
		newEnqueueNewsCmd(factory),
	)
	return root
}

// liveDeps connects to the configured Postgres and wires the services.
func liveDeps(logger *slog.Logger) depsFactory {
	return func(ctx context.Context) (*adminDeps, error) {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		logger = bootstrap.InitLogger(cfg.LogLevel)

		infra, err := connectInfra(logger, &cfg)
		if err != nil {
			return nil, err
		}
		db := infra.DB

		svcs, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
			Config: &cfg,
			DB:     db,
			Logger: logger,
		})
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("wire services: %w", err)
		}

		return &adminDeps{
			Queue:    svcs.Queue,
			Producer: svcs.Producer,
			Migrate: func(ctx context.Context) error {
				mctx, cancel := context.WithTimeout(ctx, defaultMigrationTimeout)
				defer cancel()
				return bootstrap.RunMigrations(mctx, db, logger)
			},
			MigrationStatus: func(ctx context.Context) ([]migrate.Migration, error) {
				return migrate.Status(ctx, db)
			},
			Close: infra.Close,
		}, nil
	}
}

// withDeps builds deps, runs fn and always releases the connections.
func withDeps(cmd *cobra.Command, factory depsFactory, fn func(ctx context.Context, deps *adminDeps) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	deps, err := factory(ctx)
	if err != nil {
		return err
	}
	if deps.Close != nil {
		defer func() {
			if cerr := deps.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}
	return fn(ctx, deps)
}
