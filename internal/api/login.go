package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/tubedesk/internal/api/auth"
)

// attachAuthRoutes registers the sign-in flow. Only /logout runs behind the
// session middleware; the other two are how a session comes to exist.
func (s *Server) attachAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/login", s.handleLogin)
	g.GET("/auth/callback", s.handleAuthCallback)
	g.POST("/logout", s.handleLogout, requireAuth)
}

// handleLogin sends the browser to Google's consent screen with a fresh
// state value the callback will verify.
func (s *Server) handleLogin(c echo.Context) error {
	state := s.states.Issue()
	return c.Redirect(http.StatusFound, s.google.ConsentURL(state))
}

// handleAuthCallback finishes the OAuth dance: verify state, trade the code
// for tokens, resolve the channel, open a session, and hand the session JWT
// to the frontend via redirect. Google credentials never leave the server.
func (s *Server) handleAuthCallback(c echo.Context) error {
	if denied := c.QueryParam("error"); denied != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "consent_denied"})
	}

	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing_code"})
	}

	if !s.states.Consume(c.QueryParam("state")) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_state"})
	}

	ctx := c.Request().Context()

	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("google code exchange failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "token_exchange_failed"})
	}

	channel, err := s.youtube.MyChannel(ctx, token.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve channel after sign-in")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "channel_lookup_failed"})
	}

	jwtString, _, err := s.sessions.CreateSession(ctx, token, channel.ID, channel.Title)
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "session_creation_failed"})
	}

	s.events.Record(ctx, "login", fmt.Sprintf("channel %s signed in", channel.Title), map[string]interface{}{
		"channel_id": channel.ID,
	})

	redirect := fmt.Sprintf("%s/?token=%s", strings.TrimSuffix(s.frontendURL, "/"), url.QueryEscape(jwtString))
	return c.Redirect(http.StatusFound, redirect)
}

// handleLogout revokes the Google token and the session. Revocation trouble
// on Google's side is not surfaced; the session is dead either way.
func (s *Server) handleLogout(c echo.Context) error {
	session := auth.GetSession(c)
	ctx := c.Request().Context()

	if err := s.google.Revoke(ctx, session.GoogleAccessToken); err != nil {
		log.Warn().Err(err).Msg("google token revocation failed")
	}

	if _, err := s.sessions.RevokeToken(ctx, bearerToken(c)); err != nil {
		log.Error().Err(err).Msg("failed to revoke session")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "logout_failed"})
	}

	s.events.Record(ctx, "logout", fmt.Sprintf("channel %s signed out", session.ChannelTitle), map[string]interface{}{
		"channel_id": session.ChannelID,
	})

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully."})
}

// bearerToken returns the raw token from the Authorization header. Routes
// behind RequireAuth always have one.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}
