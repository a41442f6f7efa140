package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tubedesk/internal/googleauth"
)

// googleTokenSlack refreshes tokens slightly before Google's own deadline so
// a request never spends its token mid-flight.
const googleTokenSlack = 30 * time.Second

// expiredSessionRetention keeps expired rows around for a while so a recent
// session still shows up in support queries before the sweep removes it.
const expiredSessionRetention = 7 * 24 * time.Hour

// TokenRefresher exchanges a Google refresh token for a fresh access token.
// *googleauth.Client satisfies it.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*googleauth.Token, error)
}

// SessionService issues and validates session JWTs and keeps the Google
// credentials behind each session usable.
type SessionService struct {
	store     SessionStore
	refresher TokenRefresher
	secretKey []byte

	// SessionTTL bounds how long a sign-in lasts before the user has to go
	// through Google again.
	SessionTTL time.Duration
}

// SessionClaims are the claims in our session JWTs. SessionUID points at the
// database row that holds the Google credentials.
type SessionClaims struct {
	SessionUID string `json:"session_uid"`
	ChannelID  string `json:"channel_id"`
	jwt.RegisteredClaims
}

// NewSessionService creates a session service signing with secretKey.
func NewSessionService(store SessionStore, refresher TokenRefresher, secretKey string, sessionTTL time.Duration) *SessionService {
	return &SessionService{
		store:      store,
		refresher:  refresher,
		secretKey:  []byte(secretKey),
		SessionTTL: sessionTTL,
	}
}

// CreateSession stores a new session carrying the Google token and returns
// the signed JWT the frontend will present on every request.
func (s *SessionService) CreateSession(ctx context.Context, token *googleauth.Token, channelID, channelTitle string) (string, *Session, error) {
	now := time.Now()
	session := &Session{
		SessionUID:         uuid.NewString(),
		ChannelID:          channelID,
		ChannelTitle:       channelTitle,
		GoogleAccessToken:  token.AccessToken,
		GoogleRefreshToken: token.RefreshToken,
		GoogleTokenExpiry:  token.Expiry,
		Scopes:             token.Scope,
		ExpiresAt:          now.Add(s.SessionTTL),
	}

	if err := s.store.Insert(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	claims := &SessionClaims{
		SessionUID: session.SessionUID,
		ChannelID:  channelID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tubedesk",
			Subject:   channelID,
		},
	}

	jwtString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return jwtString, session, nil
}

// ResolveToken validates a session JWT, loads the backing session, and makes
// sure its Google access token is still good, refreshing and persisting it
// when it is about to lapse. Handlers downstream can use the session's
// Google token without checking expiry themselves.
func (s *SessionService) ResolveToken(ctx context.Context, tokenString string) (*Session, error) {
	claims, err := s.parseTokenClaims(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := s.store.FindByUID(ctx, claims.SessionUID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	if s.googleTokenStale(session) {
		if session.GoogleRefreshToken == "" {
			return nil, fmt.Errorf("google authorization expired and no refresh token on file")
		}
		refreshed, err := s.refresher.Refresh(ctx, session.GoogleRefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh google token: %w", err)
		}
		if err := s.store.UpdateGoogleToken(ctx, session.SessionUID, refreshed.AccessToken, refreshed.Expiry); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed google token: %w", err)
		}
		session.GoogleAccessToken = refreshed.AccessToken
		session.GoogleTokenExpiry = refreshed.Expiry
	}

	if err := s.store.Touch(ctx, session.SessionUID); err != nil {
		// Not critical, the session is still valid.
		log.Warn().Err(err).Msg("failed to update session last_used_at")
	}

	return session, nil
}

// RevokeToken revokes the session a JWT points at. Used by logout.
func (s *SessionService) RevokeToken(ctx context.Context, tokenString string) (*Session, error) {
	claims, err := s.parseTokenClaims(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := s.store.FindByUID(ctx, claims.SessionUID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	if err := s.store.Revoke(ctx, claims.SessionUID); err != nil {
		return nil, err
	}
	return session, nil
}

// SweepExpired removes sessions that expired long enough ago to be of no
// further interest. Called periodically by a background job.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx, expiredSessionRetention)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("swept expired sessions")
	}
	return removed, nil
}

func (s *SessionService) googleTokenStale(session *Session) bool {
	if session.GoogleTokenExpiry.IsZero() {
		return false
	}
	return time.Now().Add(googleTokenSlack).After(session.GoogleTokenExpiry)
}

func (s *SessionService) parseTokenClaims(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
