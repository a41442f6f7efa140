package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/tubedesk/internal/api/auth"
	"github.com/tubedesk/internal/comments"
	"github.com/tubedesk/internal/youtube"
)

// CommentCreateRequest is the body of POST /videos/:id/comments. A non-nil
// ParentID makes the comment a reply to that platform comment.
type CommentCreateRequest struct {
	Text     string  `json:"text"`
	ParentID *string `json:"parent_id"`
}

func (s *Server) attachCommentRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/videos/:id/comments", s.handleCommentView, requireAuth)
	g.POST("/videos/:id/comments", s.handlePostComment, requireAuth)
	g.GET("/videos/:id/comments/local", s.handleListLocalComments, requireAuth)
	g.DELETE("/comments/:id", s.handleDeleteComment, requireAuth)
}

// handleCommentView serves the merged comment view: live YouTube threads
// decorated with deletability for comments posted through this dashboard.
// When the local records cannot be read the view still ships, all comments
// non-deletable, flagged deletability_degraded.
func (s *Server) handleCommentView(c echo.Context) error {
	session := auth.GetSession(c)
	videoID := c.Param("id")

	view, err := s.comments.FetchView(c.Request().Context(), session.GoogleAccessToken, videoID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to fetch comment view")
		return commentViewErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": view})
}

// handlePostComment publishes a top-level comment or a reply, then returns
// the refreshed merged view with the new comment already deletable.
func (s *Server) handlePostComment(c echo.Context) error {
	session := auth.GetSession(c)
	videoID := c.Param("id")
	ctx := c.Request().Context()

	var body CommentCreateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_body"})
	}
	if strings.TrimSpace(body.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text_required"})
	}

	view, err := s.comments.Post(ctx, session.GoogleAccessToken, videoID, body.Text, body.ParentID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to post comment")

		var postErr *comments.PostRejectedError
		if errors.As(err, &postErr) {
			if apiErr, ok := youtube.AsAPIError(err); ok {
				switch {
				case apiErr.HasReason(youtube.ReasonVideoNotFound):
					return c.JSON(http.StatusNotFound, map[string]string{"error": "video_not_found"})
				case apiErr.HasReason(youtube.ReasonCommentsDisabled):
					return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "comments_disabled"})
				case apiErr.HasReason(youtube.ReasonQuotaExceeded) || apiErr.HasReason(youtube.ReasonRateLimitExceeded):
					return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "youtube_quota_exhausted"})
				case apiErr.HasReason(youtube.ReasonForbidden) || apiErr.StatusCode == http.StatusForbidden:
					return c.JSON(http.StatusForbidden, map[string]string{"error": "youtube_permission_denied"})
				}
			}
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "comment_rejected"})
		}

		// The post itself succeeded; reloading the view is what failed.
		return commentViewErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": view})
}

// handleListLocalComments returns the raw rows of comments posted through
// this dashboard for a video.
func (s *Server) handleListLocalComments(c echo.Context) error {
	videoID := c.Param("id")

	records, err := s.comments.LocalRecords(c.Request().Context(), videoID)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("failed to list local comment records")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database_error"})
	}
	if records == nil {
		records = []comments.LocalComment{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": records})
}

// handleDeleteComment removes a dashboard-posted comment from YouTube and
// from the local records, then returns the refreshed view. The :id here is
// the local record id, not the platform comment id.
func (s *Server) handleDeleteComment(c echo.Context) error {
	session := auth.GetSession(c)

	localID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || localID <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_comment_id"})
	}

	view, err := s.comments.Delete(c.Request().Context(), session.GoogleAccessToken, localID)
	if err != nil {
		log.Warn().Err(err).Int64("local_id", localID).Msg("failed to delete comment")

		if errors.Is(err, comments.ErrUnknownLocalComment) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "comment_not_found"})
		}

		var delErr *comments.DeleteRejectedError
		if errors.As(err, &delErr) {
			if apiErr, ok := youtube.AsAPIError(err); ok {
				switch {
				case apiErr.StatusCode == http.StatusNotFound:
					// Gone on the platform while our record lingered.
					return c.JSON(http.StatusConflict, map[string]string{"error": "comment_already_removed"})
				case apiErr.HasReason(youtube.ReasonQuotaExceeded) || apiErr.HasReason(youtube.ReasonRateLimitExceeded):
					return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "youtube_quota_exhausted"})
				case apiErr.HasReason(youtube.ReasonForbidden) || apiErr.StatusCode == http.StatusForbidden:
					return c.JSON(http.StatusForbidden, map[string]string{"error": "youtube_permission_denied"})
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "delete_rejected"})
			}
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "youtube_unavailable"})
		}

		var reloadErr *comments.RemoteUnavailableError
		if errors.As(err, &reloadErr) {
			// The deletion went through; reloading the view is what failed.
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "youtube_unavailable"})
		}

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete_failed"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": view})
}

// commentViewErrorResponse maps a failed view fetch. Remote trouble is a
// 502; whether comments are disabled or YouTube is down, the caller cannot
// get a trustworthy view right now.
func commentViewErrorResponse(c echo.Context, err error) error {
	var remoteErr *comments.RemoteUnavailableError
	if errors.As(err, &remoteErr) {
		if apiErr, ok := youtube.AsAPIError(err); ok && apiErr.HasReason(youtube.ReasonCommentsDisabled) {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "comments_disabled"})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "youtube_unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "comment_view_failed"})
}
