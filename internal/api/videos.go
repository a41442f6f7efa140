package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/tubedesk/internal/api/auth"
	"github.com/tubedesk/internal/notes"
	"github.com/tubedesk/internal/youtube"
)

const (
	defaultVideoLimit = 20
	maxVideoLimit     = 200
)

// MetadataUpdateRequest is the body of PUT /videos/:id/metadata.
type MetadataUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SuggestionRequest is the body of POST /videos/:id/suggestions. Title is
// the current title the model should riff on.
type SuggestionRequest struct {
	Title string `json:"title"`
}

func (s *Server) attachVideoRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	group := g.Group("/videos")
	group.Use(requireAuth)
	group.GET("", s.handleListVideos)
	group.GET("/:id", s.handleGetVideo)
	group.PUT("/:id/metadata", s.handleUpdateMetadata)
	group.POST("/:id/suggestions", s.handleSuggestTitles)
}

// handleListVideos returns the channel's uploads, newest first, with public
// statistics. `?limit=` caps how many.
func (s *Server) handleListVideos(c echo.Context) error {
	session := auth.GetSession(c)
	ctx := c.Request().Context()

	limit := defaultVideoLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxVideoLimit {
		limit = maxVideoLimit
	}

	channel, err := s.youtube.MyChannel(ctx, session.GoogleAccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve channel")
		return youTubeErrorResponse(c, err)
	}

	ids, err := s.youtube.ListUploads(ctx, session.GoogleAccessToken, channel.UploadsPlaylist, limit)
	if err != nil {
		log.Warn().Err(err).Str("playlist_id", channel.UploadsPlaylist).Msg("failed to list uploads")
		return youTubeErrorResponse(c, err)
	}

	videos, err := s.youtube.ListVideos(ctx, session.GoogleAccessToken, ids)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch video details")
		return youTubeErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": videos})
}

func (s *Server) handleGetVideo(c echo.Context) error {
	session := auth.GetSession(c)
	videoID := c.Param("id")

	video, err := s.youtube.GetVideo(c.Request().Context(), session.GoogleAccessToken, videoID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to fetch video")
		return youTubeErrorResponse(c, err)
	}
	if video == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "video_not_found"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": video})
}

// handleUpdateMetadata pushes a new title and description to YouTube, then
// mirrors the title into the video's note so the notes list reflects what is
// live. The mirror is best effort; YouTube is the source of truth.
func (s *Server) handleUpdateMetadata(c echo.Context) error {
	session := auth.GetSession(c)
	videoID := c.Param("id")
	ctx := c.Request().Context()

	var body MetadataUpdateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_body"})
	}
	if body.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title_required"})
	}

	video, err := s.youtube.UpdateVideoMetadata(ctx, session.GoogleAccessToken, videoID, body.Title, body.Description)
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to update video metadata")
		return youTubeErrorResponse(c, err)
	}
	if video == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "video_not_found"})
	}

	s.mirrorTitleToNote(c, videoID, body.Title)

	s.events.Record(ctx, "video_updated", fmt.Sprintf("updated metadata for video %s", videoID), map[string]interface{}{
		"video_id": videoID,
		"title":    body.Title,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{"data": video})
}

// mirrorTitleToNote upserts the video's note with the freshly published
// title. Failures only cost the mirror, never the update that already
// happened on YouTube.
func (s *Server) mirrorTitleToNote(c echo.Context, videoID, title string) {
	ctx := c.Request().Context()

	existing, err := s.notes.List(ctx, notes.Filter{VideoID: videoID, Limit: 1})
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to look up video note for title mirror")
		return
	}

	if len(existing) == 0 {
		err = s.notes.Create(ctx, &notes.Note{VideoID: videoID, Title: title})
	} else {
		_, err = s.notes.Update(ctx, existing[0].ID, notes.Patch{Title: &title})
	}
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to mirror title into video note")
	}
}

// handleSuggestTitles returns three alternative titles. The suggestion
// service degrades to canned titles on its own, so this endpoint always
// answers 200.
func (s *Server) handleSuggestTitles(c echo.Context) error {
	videoID := c.Param("id")
	ctx := c.Request().Context()

	var body SuggestionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_body"})
	}
	if body.Title == "" {
		body.Title = "YouTube Video"
	}

	suggestions := s.titles.Suggest(ctx, body.Title)

	s.events.Record(ctx, "suggestions_generated", fmt.Sprintf("generated title suggestions for video %s", videoID), map[string]interface{}{
		"video_id":   videoID,
		"base_title": body.Title,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

// youTubeErrorResponse maps a YouTube API failure onto the status we serve.
// Anything unrecognized is a 502: the upstream call failed and retrying the
// same action is the user's move.
func youTubeErrorResponse(c echo.Context, err error) error {
	if apiErr, ok := youtube.AsAPIError(err); ok {
		switch {
		case apiErr.HasReason(youtube.ReasonVideoNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "video_not_found"})
		case apiErr.HasReason(youtube.ReasonQuotaExceeded) || apiErr.HasReason(youtube.ReasonRateLimitExceeded):
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "youtube_quota_exhausted"})
		case apiErr.HasReason(youtube.ReasonForbidden) || apiErr.StatusCode == http.StatusForbidden:
			return c.JSON(http.StatusForbidden, map[string]string{"error": "youtube_permission_denied"})
		case apiErr.StatusCode == http.StatusUnauthorized:
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "google_authorization_expired"})
		}
	}
	return c.JSON(http.StatusBadGateway, map[string]string{"error": "youtube_unavailable"})
}
