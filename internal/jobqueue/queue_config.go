/*
Package jobqueue configuration. All tunable parameters for the maintenance
job queue live here.

Both jobs are cheap single-statement deletes, so two workers cover them.
Raise MaxWorkers only if more job kinds are added.
*/
package jobqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds the configurable parameters for the job queue.
type QueueConfig struct {
	// Worker configuration
	MaxWorkers int // concurrent workers processing jobs (default: 2)

	// Retry configuration
	MaxRetries int           // attempts per job before River parks it (default: 5)
	JobTimeout time.Duration // maximum time a single job can run (default: 2 minutes)

	// Schedules
	SessionSweep         bool          // whether the expired-session sweep runs at all (default: true)
	SessionSweepInterval time.Duration // how often expired sessions are swept (default: hourly)
	LogRetentionInterval time.Duration // how often the activity log is pruned (default: daily)

	// Retention
	LogRetentionAge time.Duration // activity entries older than this are dropped (default: 90 days)
}

// DefaultQueueConfig returns the default configuration.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers: 2,
		MaxRetries: 5,
		JobTimeout: 2 * time.Minute,

		SessionSweep:         true,
		SessionSweepInterval: 1 * time.Hour,
		LogRetentionInterval: 24 * time.Hour,

		LogRetentionAge: 90 * 24 * time.Hour,
	}
}

// RiverQueueConfig converts our config to River's queue configuration format.
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
