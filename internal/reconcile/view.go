package reconcile

import "sync"

// ViewState guards the currently selected video against stale in-flight
// fetches. Every fetch result carries the video ID it was requested for;
// Apply admits a view only while that video is still the selection, so a
// response that arrives after the user switched videos is discarded instead
// of clobbering the newer view. There is no cancellation: a new selection
// simply supersedes the old one.
type ViewState struct {
	mu       sync.Mutex
	selected string
	view     View
	loaded   bool
}

// NewViewState returns a guard with videoID as the initial selection.
func NewViewState(videoID string) *ViewState {
	return &ViewState{selected: videoID}
}

// Select switches the current selection and clears the held view when the
// video actually changed.
func (s *ViewState) Select(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == videoID {
		return
	}
	s.selected = videoID
	s.view = View{}
	s.loaded = false
}

// Selected returns the video ID fetches should currently be stamped with.
func (s *ViewState) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Apply installs v as the current view and reports true, unless v is stamped
// for a video that is no longer selected, in which case it is dropped.
func (s *ViewState) Apply(v View) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.VideoID != s.selected {
		return false
	}
	s.view = v
	s.loaded = true
	return true
}

// Current returns the last applied view; ok is false while no fetch for the
// current selection has completed (the loading state, during which no partial
// reconciliation is shown).
func (s *ViewState) Current() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.loaded
}
