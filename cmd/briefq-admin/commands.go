package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/briefq/briefq/internal/domain/model"
)

const (
	defaultListLimit  = 50
	defaultRetryLimit = 500
)

func newMigrateCmd(factory depsFactory) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, factory, func(ctx context.Context, deps *adminDeps) error {
				if statusOnly {
					return printMigrationStatus(ctx, cmd.OutOrStdout(), deps)
				}
				if deps.Migrate == nil {
					return errors.New("migrations are not available")
				}
				if err := deps.Migrate(ctx); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "list migrations without applying them")
	return cmd
}

func printMigrationStatus(ctx context.Context, out io.Writer, deps *adminDeps) error {
	if deps.MigrationStatus == nil {
		return errors.New("migration status is not available")
	}
	migrations, err := deps.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "VERSION\tAPPLIED"); err != nil {
		return err
	}
	for _, m := range migrations {
		applied := "pending"
		if m.AppliedAt != nil {
			applied = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", m.Version, applied); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func newStatsCmd(factory depsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts per queue and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, factory, func(ctx context.Context, deps *adminDeps) error {
				stats, err := deps.Queue.Stats(ctx)
				if err != nil {
					return fmt.Errorf("queue stats: %w", err)
				}
				return printStats(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func printStats(out io.Writer, stats []*model.QueueStats) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "QUEUE\tPENDING\tRUNNING\tCOMPLETED\tFAILED"); err != nil {
		return err
	}
	for _, s := range stats {
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.Queue, s.Pending, s.Running, s.Completed, s.Failed); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type listFlags struct {
	queue  string
	status string
	limit  int
}

func newListCmd(factory depsFactory) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return withDeps(cmd, factory, func(ctx context.Context, deps *adminDeps) error {
				entries, err := deps.Queue.List(ctx, opts)
				if err != nil {
					return fmt.Errorf("list entries: %w", err)
				}
				return printEntries(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().StringVar(&flags.queue, "queue", "", "queue name (main-job-queue, google-search-queue, news-queue)")
	cmd.Flags().StringVar(&flags.status, "status", "", "entry status (pending, running, completed, failed)")
	cmd.Flags().IntVar(&flags.limit, "limit", defaultListLimit, "maximum entries to print")
	return cmd
}

func (f listFlags) options() (model.EntryListOptions, error) {
	opts := model.EntryListOptions{Limit: f.limit}
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if f.queue != "" {
		q := model.QueueName(f.queue)
		if !q.Valid() {
			return opts, fmt.Errorf("unknown queue %q", f.queue)
		}
		opts.Queue = &q
	}
	if f.status != "" {
		s := model.EntryStatus(f.status)
		if !s.Valid() {
			return opts, fmt.Errorf("unknown status %q", f.status)
		}
		opts.Status = &s
	}
	return opts, nil
}

func printEntries(out io.Writer, entries []*model.QueueEntry) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tQUEUE\tSTATUS\tATTEMPTS\tRECORD\tSCHEDULED\tLAST ERROR"); err != nil {
		return err
	}
	for _, e := range entries {
		record := "-"
		if e.RecordID != nil {
			record = *e.RecordID
		}
		lastErr := "-"
		if e.LastError != nil {
			lastErr = *e.LastError
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			e.ID, e.Queue, e.Status, e.Attempts, e.MaxAttempts, record,
			e.ScheduledAt.UTC().Format(time.RFC3339), lastErr); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func newRetryCmd(factory depsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <entry-id>",
		Short: "Return a dead-lettered entry to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, factory, func(ctx context.Context, deps *adminDeps) error {
				if err := deps.Queue.Retry(ctx, args[0]); err != nil {
					return fmt.Errorf("retry %s: %w", args[0], err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "entry %s is pending\n", args[0])
				return err
			})
		},
	}
}

func newRetryPendingCmd(factory depsFactory) *cobra.Command {
	var (
		jobType string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "retry-pending",
		Short: "Re-enqueue job records stuck in pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := model.RetryPendingOptions{Limit: limit}
			if jobType != "" {
				var t model.JobType
				if err := t.UnmarshalText([]byte(jobType)); err != nil {
					return err
				}
				opts.Type = &t
			}
			return withDeps(cmd, factory, func(ctx context.Context, deps *adminDeps) error {
				results, err := deps.Producer.RetryPending(ctx, opts)
				if err != nil {
					return fmt.Errorf("retry pending: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(results) == 0 {
					_, err = fmt.Fprintln(out, "no pending jobs found")
					return err
				}
				for _, r := range results {
					if _, err = fmt.Fprintf(out, "requeued record %s as entry %s\n", r.DBID, r.JobID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&jobType, "type", "", "only retry records of this job type (search, google_search, news)")
	cmd.Flags().IntVar(&limit, "limit", defaultRetryLimit, "maximum records to requeue")
	return cmd
}

func newEnqueueNewsCmd(factory depsFactory) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "enqueue-news",
		Short: "Submit a news job now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, factory, func(ctx context.Context, deps *adminDeps) error {
				res, err := deps.Producer.SubmitNews(ctx, note)
				if err != nil {
					return fmt.Errorf("submit news job: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "news job enqueued: entry %s, record %s\n", res.JobID, res.DBID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "Manual trigger from briefq-admin", "note stored on the job record")
	return cmd
}
