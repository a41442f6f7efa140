// Package comments orchestrates the comment dashboard: it merges live
// YouTube threads with the records of comments posted through this app, and
// carries posts and deletions through both sides.
package comments

import (
	"context"
	"time"

	"github.com/tubedesk/internal/reconcile"
)

// LocalComment is one row in the comments table: a comment the creator
// posted through this dashboard. Its ID is the deletion handle.
type LocalComment struct {
	ID               int64     `json:"id"`
	VideoID          string    `json:"video_id"`
	PlatformID       string    `json:"platform_id"`
	ParentPlatformID *string   `json:"parent_platform_id,omitempty"`
	TextSnippet      string    `json:"text_snippet"`
	CreatedAt        time.Time `json:"created_at"`
}

// Record converts the row into the shape the reconciliation model joins on.
func (c *LocalComment) Record() reconcile.LocalCommentRecord {
	return reconcile.LocalCommentRecord{
		LocalID:          c.ID,
		PlatformID:       c.PlatformID,
		ParentPlatformID: c.ParentPlatformID,
	}
}

// Records converts a row set for reconciliation.
func Records(localComments []LocalComment) []reconcile.LocalCommentRecord {
	records := make([]reconcile.LocalCommentRecord, 0, len(localComments))
	for i := range localComments {
		records = append(records, localComments[i].Record())
	}
	return records
}

// Store persists locally-posted comment records.
type Store interface {
	Insert(ctx context.Context, comment *LocalComment) error
	ListByVideo(ctx context.Context, videoID string) ([]LocalComment, error)
	// GetByID returns nil when no record has that id.
	GetByID(ctx context.Context, id int64) (*LocalComment, error)
	Delete(ctx context.Context, id int64) error
}
