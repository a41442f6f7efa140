package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func (s *Server) attachActivityRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/logs", s.handleRecentActivity, requireAuth)
}

// handleRecentActivity serves the activity feed, newest first. `?limit=`
// defaults to 50 and is capped at 200; `?offset=` pages further back.
func (s *Server) handleRecentActivity(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			offset = n
		}
	}

	events, err := s.events.Recent(ctx, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch activity entries")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database_error"})
	}

	totalCount, err := s.events.Count(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count activity entries")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database_error"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events":      events,
		"total_count": totalCount,
		"has_more":    offset+len(events) < totalCount,
	})
}
