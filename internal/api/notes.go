package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/tubedesk/internal/notes"
)

// maxNoteTitleLen caps note titles; longer ones are almost certainly pasted
// content that belongs in the body.
const maxNoteTitleLen = 200

// NoteCreateRequest is the body of POST /notes. VideoID is optional; a note
// without one is channel-level.
type NoteCreateRequest struct {
	VideoID string   `json:"video_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// NoteUpdateRequest is the body of PUT /notes/:id. Absent fields keep the
// stored value; an explicit empty tags array clears the tags.
type NoteUpdateRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

func (s *Server) attachNoteRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	group := g.Group("/notes")
	group.Use(requireAuth)
	group.GET("", s.handleListNotes)
	group.POST("", s.handleCreateNote)
	group.PUT("/:id", s.handleUpdateNote)
	group.DELETE("/:id", s.handleDeleteNote)
}

// handleListNotes lists notes newest first. `?video_id=` scopes to one
// video, `?search=` matches title and content, `?tag=` matches tags
// case-insensitively.
func (s *Server) handleListNotes(c echo.Context) error {
	filter := notes.Filter{
		VideoID: c.QueryParam("video_id"),
		Search:  c.QueryParam("search"),
		Tag:     c.QueryParam("tag"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}

	list, err := s.notes.List(c.Request().Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list notes")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database_error"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": list})
}

func (s *Server) handleCreateNote(c echo.Context) error {
	ctx := c.Request().Context()

	var body NoteCreateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_body"})
	}
	if body.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title_required"})
	}
	if utf8.RuneCountInString(body.Title) > maxNoteTitleLen {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title_too_long"})
	}

	note := &notes.Note{
		VideoID: body.VideoID,
		Title:   body.Title,
		Content: body.Content,
		Tags:    body.Tags,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		log.Error().Err(err).Msg("failed to create note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database_error"})
	}

	s.events.Record(ctx, "note_created", fmt.Sprintf("created note %d", note.ID), map[string]interface{}{
		"note_id":  note.ID,
		"video_id": note.VideoID,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{"data": note})
}

func (s *Server) handleUpdateNote(c echo.Context) error {
	ctx := c.Request().Context()

	noteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || noteID <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_note_id"})
	}

	var body NoteUpdateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_body"})
	}
	if body.Title != nil {
		if *body.Title == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "title_required"})
		}
		if utf8.RuneCountInString(*body.Title) > maxNoteTitleLen {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "title_too_long"})
		}
	}

	note, err := s.notes.Update(ctx, noteID, notes.Patch{
		Title:   body.Title,
		Content: body.Content,
		Tags:    body.Tags,
	})
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "note_not_found"})
		}
		log.Error().Err(err).Int64("note_id", noteID).Msg("failed to update note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database_error"})
	}

	s.events.Record(ctx, "note_updated", fmt.Sprintf("updated note %d", noteID), map[string]interface{}{
		"note_id": noteID,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{"data": note})
}

func (s *Server) handleDeleteNote(c echo.Context) error {
	ctx := c.Request().Context()

	noteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || noteID <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_note_id"})
	}

	if err := s.notes.Delete(ctx, noteID); err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "note_not_found"})
		}
		log.Error().Err(err).Int64("note_id", noteID).Msg("failed to delete note")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database_error"})
	}

	s.events.Record(ctx, "note_deleted", fmt.Sprintf("deleted note %d", noteID), map[string]interface{}{
		"note_id": noteID,
	})

	return c.JSON(http.StatusOK, map[string]string{"message": "note_deleted"})
}
