package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubedesk/internal/api/auth"
	"github.com/tubedesk/internal/comments"
	"github.com/tubedesk/internal/eventlog"
	"github.com/tubedesk/internal/googleauth"
	"github.com/tubedesk/internal/notes"
	"github.com/tubedesk/internal/reconcile"
	"github.com/tubedesk/internal/titles"
	"github.com/tubedesk/internal/youtube"
)

// fakeYouTube satisfies both VideoAPI and comments.RemoteAPI so one double
// backs the whole server.
type fakeYouTube struct {
	mu        sync.Mutex
	lastToken string

	channel    *youtube.Channel
	channelErr error
	uploads    []string
	uploadsErr error
	videos     map[string]youtube.Video
	videosErr  error
	updateErr  error

	threads          []reconcile.RemoteCommentThread
	threadsErr       error
	insertedThreadID string
	insertThreadErr  error
	insertedReplyID  string
	insertReplyErr   error
	deleteErr        error
	deletedPlatform  []string
}

func (f *fakeYouTube) noteToken(token string) {
	f.mu.Lock()
	f.lastToken = token
	f.mu.Unlock()
}

func (f *fakeYouTube) MyChannel(ctx context.Context, token string) (*youtube.Channel, error) {
	f.noteToken(token)
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return f.channel, nil
}

func (f *fakeYouTube) ListUploads(ctx context.Context, token, playlistID string, limit int) ([]string, error) {
	f.noteToken(token)
	if f.uploadsErr != nil {
		return nil, f.uploadsErr
	}
	if limit > 0 && len(f.uploads) > limit {
		return f.uploads[:limit], nil
	}
	return f.uploads, nil
}

func (f *fakeYouTube) ListVideos(ctx context.Context, token string, ids []string) ([]youtube.Video, error) {
	f.noteToken(token)
	if f.videosErr != nil {
		return nil, f.videosErr
	}
	out := make([]youtube.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeYouTube) GetVideo(ctx context.Context, token, id string) (*youtube.Video, error) {
	f.noteToken(token)
	if f.videosErr != nil {
		return nil, f.videosErr
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeYouTube) UpdateVideoMetadata(ctx context.Context, token, id, title, description string) (*youtube.Video, error) {
	f.noteToken(token)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, nil
	}
	v.Title = title
	v.Description = description
	f.videos[id] = v
	return &v, nil
}

func (f *fakeYouTube) ListCommentThreads(ctx context.Context, token, videoID string) ([]reconcile.RemoteCommentThread, error) {
	f.noteToken(token)
	if f.threadsErr != nil {
		return nil, f.threadsErr
	}
	return f.threads, nil
}

func (f *fakeYouTube) InsertThread(ctx context.Context, token, videoID, text string) (string, error) {
	f.noteToken(token)
	if f.insertThreadErr != nil {
		return "", f.insertThreadErr
	}
	return f.insertedThreadID, nil
}

func (f *fakeYouTube) InsertReply(ctx context.Context, token, parentID, text string) (string, error) {
	f.noteToken(token)
	if f.insertReplyErr != nil {
		return "", f.insertReplyErr
	}
	return f.insertedReplyID, nil
}

func (f *fakeYouTube) DeleteComment(ctx context.Context, token, platformID string) error {
	f.noteToken(token)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	f.deletedPlatform = append(f.deletedPlatform, platformID)
	f.mu.Unlock()
	return nil
}

// fakeOAuth satisfies OAuthAPI and auth.TokenRefresher.
type fakeOAuth struct {
	token         *googleauth.Token
	exchangeErr   error
	exchangedCode string
	revoked       []string
	revokeErr     error
}

func (f *fakeOAuth) ConsentURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string) (*googleauth.Token, error) {
	f.exchangedCode = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeOAuth) Refresh(ctx context.Context, refreshToken string) (*googleauth.Token, error) {
	return f.token, nil
}

func (f *fakeOAuth) Revoke(ctx context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return f.revokeErr
}

// fakeSessionStore keeps sessions in memory with the same visibility rules
// as the Postgres store.
type fakeSessionStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*auth.Session
	revoked  map[string]bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[string]*auth.Session),
		revoked:  make(map[string]bool),
	}
}

func (f *fakeSessionStore) Insert(ctx context.Context, session *auth.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	session.ID = f.nextID
	session.CreatedAt = time.Now()
	session.LastUsedAt = time.Now()
	copied := *session
	f.sessions[session.SessionUID] = &copied
	return nil
}

func (f *fakeSessionStore) FindByUID(ctx context.Context, uid string) (*auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[uid]
	if !ok || f.revoked[uid] || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionStore) UpdateGoogleToken(ctx context.Context, uid, accessToken string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[uid]; ok {
		session.GoogleAccessToken = accessToken
		session.GoogleTokenExpiry = expiry
	}
	return nil
}

func (f *fakeSessionStore) Touch(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[uid]; ok {
		session.LastUsedAt = time.Now()
	}
	return nil
}

func (f *fakeSessionStore) Revoke(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[uid] = true
	return nil
}

func (f *fakeSessionStore) DeleteExpired(ctx context.Context, keepFor time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-keepFor)
	var removed int64
	for uid, session := range f.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(f.sessions, uid)
			removed++
		}
	}
	return removed, nil
}

// fakeCommentStore implements comments.Store in memory.
type fakeCommentStore struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]comments.LocalComment
	insertErr error
	listErr   error
	getErr    error
	deleteErr error
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{rows: make(map[int64]comments.LocalComment)}
}

func (f *fakeCommentStore) Insert(ctx context.Context, comment *comments.LocalComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	comment.ID = f.nextID
	comment.CreatedAt = time.Now()
	f.rows[comment.ID] = *comment
	return nil
}

func (f *fakeCommentStore) ListByVideo(ctx context.Context, videoID string) ([]comments.LocalComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]comments.LocalComment, 0)
	for _, row := range f.rows {
		if row.VideoID == videoID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCommentStore) GetByID(ctx context.Context, id int64) (*comments.LocalComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeCommentStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, id)
	return nil
}

// recorderStore implements eventlog.Store in memory.
type recorderStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []eventlog.Entry
}

func (r *recorderStore) Insert(ctx context.Context, action, details string, metadata []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries = append(r.entries, eventlog.Entry{
		ID:        r.nextID,
		Action:    action,
		Details:   details,
		Metadata:  json.RawMessage(metadata),
		CreatedAt: time.Now(),
	})
	return nil
}

func (r *recorderStore) Recent(ctx context.Context, limit, offset int) ([]eventlog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]eventlog.Entry, 0)
	for i := len(r.entries) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *recorderStore) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}

func (r *recorderStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

// actions returns the recorded action names oldest first.
func (r *recorderStore) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

// testServer bundles a fully wired Server with its doubles and a valid
// session token.
type testServer struct {
	server       *Server
	yt           *fakeYouTube
	oauth        *fakeOAuth
	sessionStore *fakeSessionStore
	commentStore *fakeCommentStore
	noteStore    *notes.InMemoryStore
	logStore     *recorderStore
	token        string
	session      *auth.Session
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	yt := &fakeYouTube{
		channel: &youtube.Channel{ID: "chan-1", Title: "Test Channel", UploadsPlaylist: "uploads-1"},
		videos:  make(map[string]youtube.Video),
	}
	oauth := &fakeOAuth{
		token: &googleauth.Token{
			AccessToken:  "google-token",
			RefreshToken: "google-refresh",
			Scope:        "youtube",
			Expiry:       time.Now().Add(time.Hour),
		},
	}

	sessionStore := newFakeSessionStore()
	sessions := auth.NewSessionService(sessionStore, oauth, "test-secret", time.Hour)

	logStore := &recorderStore{}
	recorder := eventlog.NewRecorder(logStore)

	commentStore := newFakeCommentStore()
	commentService := comments.NewService(yt, commentStore, recorder)

	titleService, err := titles.NewService(titles.Config{})
	require.NoError(t, err)

	noteStore := notes.NewInMemoryStore()

	server := &Server{
		port:        0,
		frontendURL: "http://localhost:5173",
		google:      oauth,
		youtube:     yt,
		sessions:    sessions,
		comments:    commentService,
		notes:       noteStore,
		events:      recorder,
		titles:      titleService,
		states:      newStateStore(),
	}
	server.setupEcho()

	token, session, err := sessions.CreateSession(context.Background(), oauth.token, "chan-1", "Test Channel")
	require.NoError(t, err)

	return &testServer{
		server:       server,
		yt:           yt,
		oauth:        oauth,
		sessionStore: sessionStore,
		commentStore: commentStore,
		noteStore:    noteStore,
		logStore:     logStore,
		token:        token,
		session:      session,
	}
}

// request runs one request through the full router, middleware included.
func (ts *testServer) request(t *testing.T, method, target string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}

	rec := httptest.NewRecorder()
	ts.server.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/healthz", nil, false)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	ts := newTestServer(t)

	protected := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/videos"},
		{http.MethodGet, "/videos/vid-1"},
		{http.MethodPut, "/videos/vid-1/metadata"},
		{http.MethodPost, "/videos/vid-1/suggestions"},
		{http.MethodGet, "/videos/vid-1/comments"},
		{http.MethodPost, "/videos/vid-1/comments"},
		{http.MethodGet, "/videos/vid-1/comments/local"},
		{http.MethodDelete, "/comments/1"},
		{http.MethodGet, "/notes"},
		{http.MethodPost, "/notes"},
		{http.MethodPut, "/notes/1"},
		{http.MethodDelete, "/notes/1"},
		{http.MethodGet, "/logs"},
		{http.MethodPost, "/logout"},
	}

	for _, route := range protected {
		t.Run(route.method+" "+route.target, func(t *testing.T) {
			rec := ts.request(t, route.method, route.target, nil, false)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestProtectedRoutesRejectGarbageToken(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	ts.server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessTokenFlowsToYouTube(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/videos", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "google-token", ts.yt.lastToken)
}
