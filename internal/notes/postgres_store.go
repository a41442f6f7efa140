package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, note *Note) error {
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO notes (video_id, title, content, tags)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `, nullIfEmpty(note.VideoID), note.Title, note.Content, pq.Array(ensureSliceNotNil(note.Tags)),
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, coalesce(video_id, ''), title, content, tags, created_at, updated_at
        FROM notes WHERE id = $1
    `, id)
	return scanNote(row)
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*Note, error) {
	query := `
        SELECT id, coalesce(video_id, ''), title, content, tags, created_at, updated_at
        FROM notes
        WHERE 1=1
    `
	var args []interface{}
	argCount := 0

	if filter.VideoID != "" {
		argCount++
		query += fmt.Sprintf(" AND video_id = $%d", argCount)
		args = append(args, filter.VideoID)
	}
	if filter.Search != "" {
		argCount++
		query += fmt.Sprintf(" AND (title ILIKE $%d OR content ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
	}

	query += " ORDER BY created_at DESC, id DESC"

	// Tag matching happens after the scan, so the SQL limit only applies
	// when no tag filter narrows the page further.
	limit := clampLimit(filter.Limit)
	if filter.Tag == "" {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	out := make([]*Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		if filter.Tag != "" && !hasTag(note, filter.Tag) {
			continue
		}
		out = append(out, note)
		if len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id int64, patch Patch) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `
        UPDATE notes
        SET title = COALESCE($1, title),
            content = COALESCE($2, content),
            tags = COALESCE($3, tags),
            updated_at = NOW()
        WHERE id = $4
        RETURNING id, coalesce(video_id, ''), title, content, tags, created_at, updated_at
    `, patch.Title, patch.Content, pq.Array(patch.Tags), id)
	return scanNote(row)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNote(scanner interface{ Scan(dest ...any) error }) (*Note, error) {
	var note Note
	var tags []string
	if err := scanner.Scan(&note.ID, &note.VideoID, &note.Title, &note.Content, pq.Array(&tags), &note.CreatedAt, &note.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	note.Tags = append([]string{}, tags...)
	return &note, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// ensureSliceNotNil keeps the tags column NOT NULL happy.
func ensureSliceNotNil(slice []string) []string {
	if slice == nil {
		return []string{}
	}
	return slice
}
