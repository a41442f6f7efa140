// Package eventlog records dashboard actions (posts, deletions, metadata
// edits) so the activity feed can show what happened and when.
package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// Entry is a single activity record.
type Entry struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	Details   string          `json:"details"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists entries. Postgres is the real implementation.
type Store interface {
	Insert(ctx context.Context, action, details string, metadata []byte) error
	Recent(ctx context.Context, limit, offset int) ([]Entry, error)
	Count(ctx context.Context) (int, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Recorder writes activity entries. Recording never fails the calling
// operation; storage trouble is logged and swallowed here so callers do not
// each have to remember that policy.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record stores an activity entry. Failures are logged, never returned.
func (r *Recorder) Record(ctx context.Context, action, details string, metadata map[string]interface{}) {
	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("failed to marshal activity metadata")
			metadataJSON = nil
		}
	}

	if err := r.store.Insert(ctx, action, details, metadataJSON); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

// Recent returns entries newest first.
func (r *Recorder) Recent(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return r.store.Recent(ctx, limit, offset)
}

// Count returns the total number of entries.
func (r *Recorder) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// Prune drops entries older than the retention window and reports how many
// went away. Called by the retention job.
func (r *Recorder) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	removed, err := r.store.Prune(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("pruned old activity entries")
	}
	return removed, nil
}
