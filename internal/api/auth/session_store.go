package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Session is one signed-in browser session. The Google credentials that back
// it live on the row so every YouTube call can present a current access token
// without a second lookup.
type Session struct {
	ID                 int64     `json:"id"`
	SessionUID         string    `json:"session_uid"`
	ChannelID          string    `json:"channel_id"`
	ChannelTitle       string    `json:"channel_title"`
	GoogleAccessToken  string    `json:"-"`
	GoogleRefreshToken string    `json:"-"`
	GoogleTokenExpiry  time.Time `json:"-"`
	Scopes             string    `json:"scopes"`
	ExpiresAt          time.Time `json:"expires_at"`
	CreatedAt          time.Time `json:"created_at"`
	LastUsedAt         time.Time `json:"last_used_at"`
}

// SessionStore persists sessions. Postgres is the real implementation; tests
// substitute an in-memory double.
type SessionStore interface {
	Insert(ctx context.Context, session *Session) error
	// FindByUID returns the live session for uid, or nil when the session
	// does not exist, is revoked, or has expired.
	FindByUID(ctx context.Context, uid string) (*Session, error)
	UpdateGoogleToken(ctx context.Context, uid, accessToken string, expiry time.Time) error
	Touch(ctx context.Context, uid string) error
	Revoke(ctx context.Context, uid string) error
	// DeleteExpired removes sessions whose expiry is older than keepFor ago
	// and reports how many rows went away.
	DeleteExpired(ctx context.Context, keepFor time.Duration) (int64, error)
}

// PostgresSessionStore stores sessions in the user_sessions table.
type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Insert(ctx context.Context, session *Session) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_sessions (
			session_uid, channel_id, channel_title,
			google_access_token, google_refresh_token, google_token_expiry,
			scopes, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, last_used_at
	`, session.SessionUID, session.ChannelID, session.ChannelTitle,
		session.GoogleAccessToken, session.GoogleRefreshToken, nullableTime(session.GoogleTokenExpiry),
		session.Scopes, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt, &session.LastUsedAt)

	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) FindByUID(ctx context.Context, uid string) (*Session, error) {
	session := &Session{}
	var refreshToken sql.NullString
	var tokenExpiry sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_uid, channel_id, channel_title,
		       google_access_token, google_refresh_token, google_token_expiry,
		       scopes, expires_at, created_at, last_used_at
		FROM user_sessions
		WHERE session_uid = $1
		AND revoked_at IS NULL
		AND expires_at > NOW()
	`, uid).Scan(
		&session.ID, &session.SessionUID, &session.ChannelID, &session.ChannelTitle,
		&session.GoogleAccessToken, &refreshToken, &tokenExpiry,
		&session.Scopes, &session.ExpiresAt, &session.CreatedAt, &session.LastUsedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	session.GoogleRefreshToken = refreshToken.String
	if tokenExpiry.Valid {
		session.GoogleTokenExpiry = tokenExpiry.Time
	}
	return session, nil
}

func (s *PostgresSessionStore) UpdateGoogleToken(ctx context.Context, uid, accessToken string, expiry time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_sessions
		SET google_access_token = $1, google_token_expiry = $2
		WHERE session_uid = $3
	`, accessToken, expiry, uid)

	if err != nil {
		return fmt.Errorf("failed to update google token: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Touch(ctx context.Context, uid string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_sessions
		SET last_used_at = NOW()
		WHERE session_uid = $1
	`, uid)
	return err
}

func (s *PostgresSessionStore) Revoke(ctx context.Context, uid string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_sessions
		SET revoked_at = NOW()
		WHERE session_uid = $1 AND revoked_at IS NULL
	`, uid)

	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) DeleteExpired(ctx context.Context, keepFor time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_sessions
		WHERE expires_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int64(keepFor.Seconds())))

	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
