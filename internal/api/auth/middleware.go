package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ContextKey represents keys for context values
type ContextKey string

const SessionContextKey ContextKey = "session"

// RequireAuth validates the Bearer session JWT, resolves the backing session
// (refreshing its Google token when needed), and stores it on the request
// context for handlers.
func RequireAuth(sessions *SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			session, err := sessions.ResolveToken(c.Request().Context(), tokenParts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
			}

			c.Set(string(SessionContextKey), session)
			return next(c)
		}
	}
}

// GetSession extracts the session from echo context. Returns nil when the
// request did not pass through RequireAuth.
func GetSession(c echo.Context) *Session {
	sessionInterface := c.Get(string(SessionContextKey))
	if sessionInterface == nil {
		return nil
	}
	session, ok := sessionInterface.(*Session)
	if !ok {
		return nil
	}
	return session
}
