package comments

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Insert(ctx context.Context, comment *LocalComment) error {
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO comments (video_id, platform_comment_id, parent_platform_id, text_snippet)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, comment.VideoID, comment.PlatformID, comment.ParentPlatformID, comment.TextSnippet,
	).Scan(&comment.ID, &comment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record posted comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByVideo(ctx context.Context, videoID string) ([]LocalComment, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, video_id, platform_comment_id, parent_platform_id, text_snippet, created_at
        FROM comments
        WHERE video_id = $1
        ORDER BY id ASC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query local comments: %w", err)
	}
	defer rows.Close()

	out := make([]LocalComment, 0)
	for rows.Next() {
		var comment LocalComment
		var parent sql.NullString
		if err := rows.Scan(&comment.ID, &comment.VideoID, &comment.PlatformID, &parent, &comment.TextSnippet, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan local comment: %w", err)
		}
		if parent.Valid {
			comment.ParentPlatformID = &parent.String
		}
		out = append(out, comment)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*LocalComment, error) {
	var comment LocalComment
	var parent sql.NullString
	err := s.db.QueryRowContext(ctx, `
        SELECT id, video_id, platform_comment_id, parent_platform_id, text_snippet, created_at
        FROM comments
        WHERE id = $1
    `, id).Scan(&comment.ID, &comment.VideoID, &comment.PlatformID, &parent, &comment.TextSnippet, &comment.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up local comment: %w", err)
	}

	if parent.Valid {
		comment.ParentPlatformID = &parent.String
	}
	return &comment, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete local comment: %w", err)
	}
	return nil
}
