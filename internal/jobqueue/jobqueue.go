/*
Package jobqueue runs the periodic maintenance jobs on a River queue backed
by Postgres: sweeping expired dashboard sessions and enforcing the activity
log retention window.

Tunable parameters live in queue_config.go.
*/
package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/zerolog/log"
)

// SessionSweeper removes sessions past their retention window.
// *auth.SessionService satisfies it.
type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// LogPruner drops activity entries older than a retention window.
// *eventlog.Recorder satisfies it.
type LogPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SessionSweepArgs carries no payload; the sweep always covers everything
// past retention.
type SessionSweepArgs struct{}

// Kind returns the job kind for River.
func (SessionSweepArgs) Kind() string {
	return "session_sweep"
}

// SessionSweepWorker deletes long-expired session rows.
type SessionSweepWorker struct {
	river.WorkerDefaults[SessionSweepArgs]
	sessions SessionSweeper
}

func (w *SessionSweepWorker) Work(ctx context.Context, job *river.Job[SessionSweepArgs]) error {
	removed, err := w.sessions.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("session sweep failed: %w", err)
	}

	log.Debug().Int64("removed", removed).Msg("session sweep completed")
	return nil
}

// LogRetentionArgs carries no payload; the retention age comes from the
// queue configuration.
type LogRetentionArgs struct{}

// Kind returns the job kind for River.
func (LogRetentionArgs) Kind() string {
	return "log_retention"
}

// LogRetentionWorker prunes activity entries older than the retention age.
type LogRetentionWorker struct {
	river.WorkerDefaults[LogRetentionArgs]
	logs   LogPruner
	maxAge time.Duration
}

func (w *LogRetentionWorker) Work(ctx context.Context, job *river.Job[LogRetentionArgs]) error {
	removed, err := w.logs.Prune(ctx, w.maxAge)
	if err != nil {
		return fmt.Errorf("log retention failed: %w", err)
	}

	log.Debug().Int64("removed", removed).Dur("max_age", w.maxAge).Msg("log retention completed")
	return nil
}

// JobQueue manages the River client and its connection pool.
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// New creates a job queue with the maintenance jobs scheduled. A nil config
// uses the defaults. It applies River's own schema migrations so a fresh
// database works without manual setup, mirroring how the rest of the schema
// is bootstrapped.
func New(ctx context.Context, databaseURL string, sessions SessionSweeper, logs LogPruner, config *QueueConfig) (*JobQueue, error) {
	if config == nil {
		config = DefaultQueueConfig()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &SessionSweepWorker{sessions: sessions})
	river.AddWorker(workers, &LogRetentionWorker{logs: logs, maxAge: config.LogRetentionAge})

	periodic := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(config.LogRetentionInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return LogRetentionArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
	if config.SessionSweep {
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(config.SessionSweepInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return SessionSweepArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       config.RiverQueueConfig(),
		Workers:      workers,
		JobTimeout:   config.JobTimeout,
		MaxAttempts:  config.MaxRetries,
		PeriodicJobs: periodic,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers.
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the workers and releases the pool.
func (jq *JobQueue) Stop(ctx context.Context) error {
	err := jq.client.Stop(ctx)
	jq.pool.Close()
	return err
}
