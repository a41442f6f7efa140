// Package api is the HTTP surface of the dashboard: OAuth sign-in, video
// listing and metadata editing, the merged comment view, notes, title
// suggestions, and the activity feed.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/tubedesk/internal/api/auth"
	"github.com/tubedesk/internal/comments"
	"github.com/tubedesk/internal/config"
	"github.com/tubedesk/internal/eventlog"
	"github.com/tubedesk/internal/googleauth"
	"github.com/tubedesk/internal/notes"
	"github.com/tubedesk/internal/titles"
	"github.com/tubedesk/internal/youtube"
)

// VideoAPI is the slice of the YouTube client the video handlers use.
// *youtube.Client satisfies it.
type VideoAPI interface {
	MyChannel(ctx context.Context, token string) (*youtube.Channel, error)
	ListUploads(ctx context.Context, token, playlistID string, limit int) ([]string, error)
	ListVideos(ctx context.Context, token string, ids []string) ([]youtube.Video, error)
	GetVideo(ctx context.Context, token, id string) (*youtube.Video, error)
	UpdateVideoMetadata(ctx context.Context, token, id, title, description string) (*youtube.Video, error)
}

// OAuthAPI is the slice of the Google OAuth client the sign-in flow uses.
// *googleauth.Client satisfies it.
type OAuthAPI interface {
	ConsentURL(state string) string
	Exchange(ctx context.Context, code string) (*googleauth.Token, error)
	Revoke(ctx context.Context, token string) error
}

// Server holds the HTTP layer and the services behind it.
type Server struct {
	echo *echo.Echo
	port int
	db   *sql.DB

	frontendURL string

	google   OAuthAPI
	youtube  VideoAPI
	sessions *auth.SessionService
	comments *comments.Service
	notes    notes.Store
	events   *eventlog.Recorder
	titles   *titles.Service
	states   *stateStore
}

// NewServer wires the full service stack over an open database handle.
func NewServer(cfg *config.Config, db *sql.DB) (*Server, error) {
	googleClient := googleauth.NewClient(googleauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Scopes:       cfg.Google.Scopes,
	})

	youtubeClient := youtube.NewClient()

	sessionStore := auth.NewPostgresSessionStore(db)
	sessions := auth.NewSessionService(sessionStore, googleClient, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	recorder := eventlog.NewRecorder(eventlog.NewPostgresStore(db))

	commentService := comments.NewService(youtubeClient, comments.NewPostgresStore(db), recorder)

	titleService, err := titles.NewService(titles.Config{
		APIKey:      cfg.Groq.APIKey,
		Model:       cfg.Groq.Model,
		BaseURL:     cfg.Groq.BaseURL,
		Temperature: cfg.Groq.Temperature,
		MaxTokens:   cfg.Groq.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up title suggestions: %w", err)
	}

	server := &Server{
		port:        cfg.Server.Port,
		db:          db,
		frontendURL: cfg.Frontend.URL,
		google:      googleClient,
		youtube:     youtubeClient,
		sessions:    sessions,
		comments:    commentService,
		notes:       notes.NewPostgresStore(db),
		events:      recorder,
		titles:      titleService,
		states:      newStateStore(),
	}
	server.setupEcho()

	return server, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s.echo = e
	s.setupRoutes()
}

// setupRoutes registers all endpoints. Everything past the sign-in flow
// requires a session token.
func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.handleHealthz)

	root := s.echo.Group("")
	requireAuth := auth.RequireAuth(s.sessions)

	s.attachAuthRoutes(root, requireAuth)
	s.attachVideoRoutes(root, requireAuth)
	s.attachCommentRoutes(root, requireAuth)
	s.attachNoteRoutes(root, requireAuth)
	s.attachActivityRoutes(root, requireAuth)
}

// handleHealthz reports liveness. The database ping is part of the answer so
// a wedged pool shows up here before it shows up as user-facing errors.
func (s *Server) handleHealthz(c echo.Context) error {
	status := map[string]string{"status": "ok"}

	if s.db != nil {
		if err := s.db.PingContext(c.Request().Context()); err != nil {
			log.Warn().Err(err).Msg("health check database ping failed")
			status["status"] = "degraded"
			status["database"] = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		status["database"] = "ok"
	}

	return c.JSON(http.StatusOK, status)
}

// Sessions exposes the session service so maintenance jobs can sweep
// expired rows.
func (s *Server) Sessions() *auth.SessionService {
	return s.sessions
}

// Events exposes the activity recorder so maintenance jobs can prune it.
func (s *Server) Events() *eventlog.Recorder {
	return s.events
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to ten seconds.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	log.Info().Int("port", s.port).Msg("dashboard API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
