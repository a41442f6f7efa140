package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Bootstrap applies the idempotent schema. River's own job tables are
// provisioned by River migrations, not here.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_sessions (
			id BIGSERIAL PRIMARY KEY,
			session_uid TEXT NOT NULL UNIQUE,
			channel_id TEXT NOT NULL DEFAULT '',
			channel_title TEXT NOT NULL DEFAULT '',
			google_access_token TEXT NOT NULL,
			google_refresh_token TEXT,
			google_token_expiry TIMESTAMPTZ,
			scopes TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			revoked_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_expires_at ON user_sessions (expires_at)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id BIGSERIAL PRIMARY KEY,
			video_id TEXT,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_video_id ON notes (video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			video_id TEXT NOT NULL,
			platform_comment_id TEXT NOT NULL,
			parent_platform_id TEXT,
			text_snippet TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_video_id ON comments (video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_platform_id ON comments (platform_comment_id)`,
		`CREATE TABLE IF NOT EXISTS logs (
			id BIGSERIAL PRIMARY KEY,
			action TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs (created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
