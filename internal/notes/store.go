// Package notes stores the creator's production notes. A note can stand on
// its own or be pinned to a video, and carries free-form tags.
package notes

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var ErrNotFound = errors.New("note not found")

type Note struct {
	ID        int64     `json:"id"`
	VideoID   string    `json:"video_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch describes a partial update. Nil fields keep the stored value; a
// non-nil empty Tags slice clears the tags.
type Patch struct {
	Title   *string
	Content *string
	Tags    []string
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	VideoID string
	Search  string
	Tag     string
	Limit   int
}

type Store interface {
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id int64) (*Note, error)
	List(ctx context.Context, filter Filter) ([]*Note, error)
	Update(ctx context.Context, id int64, patch Patch) (*Note, error)
	Delete(ctx context.Context, id int64) error
}

// hasTag matches tags case-insensitively. Tag filtering happens app-side in
// both stores so the semantics cannot drift.
func hasTag(note *Note, tag string) bool {
	for _, t := range note.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func matchesSearch(note *Note, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(note.Title), q) ||
		strings.Contains(strings.ToLower(note.Content), q)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// InMemoryStore keeps notes in a map. Used by tests and by anything that
// wants note semantics without Postgres.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Note
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[int64]*Note)}
}

func (s *InMemoryStore) clone(note *Note) *Note {
	copied := *note
	copied.Tags = append([]string(nil), note.Tags...)
	return &copied
}

func (s *InMemoryStore) Create(ctx context.Context, note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	note.ID = s.nextID
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Tags == nil {
		note.Tags = []string{}
	}
	s.byID[note.ID] = s.clone(note)
	return nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, id int64) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(note), nil
}

func (s *InMemoryStore) List(ctx context.Context, filter Filter) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Note, 0)
	for _, note := range s.byID {
		if filter.VideoID != "" && note.VideoID != filter.VideoID {
			continue
		}
		if filter.Search != "" && !matchesSearch(note, filter.Search) {
			continue
		}
		if filter.Tag != "" && !hasTag(note, filter.Tag) {
			continue
		}
		out = append(out, s.clone(note))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit := clampLimit(filter.Limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, id int64, patch Patch) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Tags != nil {
		note.Tags = append([]string(nil), patch.Tags...)
	}
	note.UpdatedAt = time.Now()
	return s.clone(note), nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
