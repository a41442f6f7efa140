package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubedesk/internal/retry"
)

func newTestClient(serverURL string) *Client {
	c := NewClient()
	c.BaseURL = serverURL
	c.retryConfig = retry.RetryConfig{
		MaxRetries:    2,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		Multiplier:    2.0,
		RetryableOnly: true,
	}
	return c
}

func TestMyChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("mine"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"items": [{
				"id": "UC123",
				"snippet": {"title": "My Channel"},
				"contentDetails": {"relatedPlaylists": {"uploads": "UU123"}}
			}]
		}`))
	}))
	defer server.Close()

	channel, err := newTestClient(server.URL).MyChannel(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "UC123", channel.ID)
	assert.Equal(t, "My Channel", channel.Title)
	assert.Equal(t, "UU123", channel.UploadsPlaylist)
}

func TestMyChannel_NoChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).MyChannel(context.Background(), "tok")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no channel")
}

func TestListUploads_Pagination(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playlistItems", r.URL.Path)
		assert.Equal(t, "UU123", r.URL.Query().Get("playlistId"))
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Empty(t, r.URL.Query().Get("pageToken"))
			w.Write([]byte(`{
				"items": [
					{"contentDetails": {"videoId": "vid-1"}},
					{"contentDetails": {"videoId": "vid-2"}}
				],
				"nextPageToken": "page-2"
			}`))
			return
		}
		assert.Equal(t, "page-2", r.URL.Query().Get("pageToken"))
		w.Write([]byte(`{"items": [{"contentDetails": {"videoId": "vid-3"}}]}`))
	}))
	defer server.Close()

	ids, err := newTestClient(server.URL).ListUploads(context.Background(), "tok", "UU123", 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"vid-1", "vid-2", "vid-3"}, ids)
	assert.Equal(t, int32(2), calls)
}

func TestListUploads_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [
				{"contentDetails": {"videoId": "vid-1"}},
				{"contentDetails": {"videoId": "vid-2"}},
				{"contentDetails": {"videoId": "vid-3"}}
			],
			"nextPageToken": "more"
		}`))
	}))
	defer server.Close()

	ids, err := newTestClient(server.URL).ListUploads(context.Background(), "tok", "UU123", 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"vid-1", "vid-2"}, ids)
}

func TestListVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "vid-1,vid-2", r.URL.Query().Get("id"))
		w.Write([]byte(`{
			"items": [
				{
					"id": "vid-1",
					"snippet": {
						"title": "First",
						"description": "desc",
						"publishedAt": "2024-05-14T09:30:00Z",
						"thumbnails": {"medium": {"url": "http://img/1-md"}, "default": {"url": "http://img/1"}}
					},
					"statistics": {"viewCount": "1200", "likeCount": "34", "commentCount": "5"}
				},
				{
					"id": "vid-2",
					"snippet": {"title": "Second", "thumbnails": {"default": {"url": "http://img/2"}}},
					"statistics": {}
				}
			]
		}`))
	}))
	defer server.Close()

	videos, err := newTestClient(server.URL).ListVideos(context.Background(), "tok", []string{"vid-1", "vid-2"})

	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "First", videos[0].Title)
	assert.Equal(t, "http://img/1-md", videos[0].Thumbnail)
	assert.Equal(t, int64(1200), videos[0].Stats.Views)
	assert.Equal(t, int64(34), videos[0].Stats.Likes)
	assert.Equal(t, int64(5), videos[0].Stats.Comments)
	assert.Equal(t, time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC), videos[0].PublishedAt)

	assert.Equal(t, "http://img/2", videos[1].Thumbnail, "falls back to default thumbnail")
	assert.Zero(t, videos[1].Stats.Views)
}

func TestGetVideo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	video, err := newTestClient(server.URL).GetVideo(context.Background(), "tok", "missing")

	require.NoError(t, err)
	assert.Nil(t, video)
}

func TestUpdateVideoMetadata(t *testing.T) {
	var update videoUpdateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{
				"items": [{
					"id": "vid-1",
					"snippet": {
						"title": "Old title",
						"description": "old desc",
						"publishedAt": "2024-01-01T00:00:00Z",
						"categoryId": "22",
						"tags": ["tag-a", "tag-b"]
					}
				}]
			}`))
			return
		}

		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		w.Write([]byte(`{
			"id": "vid-1",
			"snippet": {"title": "New title", "description": "new desc", "categoryId": "22", "tags": ["tag-a", "tag-b"]},
			"statistics": {"viewCount": "10"}
		}`))
	}))
	defer server.Close()

	video, err := newTestClient(server.URL).UpdateVideoMetadata(context.Background(), "tok", "vid-1", "New title", "new desc")

	require.NoError(t, err)
	assert.Equal(t, "vid-1", update.ID)
	assert.Equal(t, "New title", update.Snippet.Title)
	assert.Equal(t, "new desc", update.Snippet.Description)
	assert.Equal(t, "22", update.Snippet.CategoryID, "category must survive the snippet replacement")
	assert.Equal(t, []string{"tag-a", "tag-b"}, update.Snippet.Tags, "tags must survive the snippet replacement")
	assert.Empty(t, update.Snippet.PublishedAt)
	assert.Equal(t, "New title", video.Title)
}

func TestListCommentThreads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/commentThreads", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "snippet,replies", q.Get("part"))
		assert.Equal(t, "vid-1", q.Get("videoId"))
		assert.Equal(t, "50", q.Get("maxResults"))
		assert.Equal(t, "plainText", q.Get("textFormat"))
		w.Write([]byte(`{
			"items": [{
				"id": "thread-1",
				"snippet": {
					"topLevelComment": {
						"id": "c1",
						"snippet": {
							"authorDisplayName": "A",
							"textDisplay": "hi",
							"likeCount": 2,
							"publishedAt": "2024-05-14T09:30:00Z"
						}
					},
					"totalReplyCount": 7
				},
				"replies": {
					"comments": [{
						"id": "r1",
						"snippet": {"authorDisplayName": "B", "textDisplay": "hey", "parentId": "c1", "publishedAt": "2024-05-14T10:00:00Z"}
					}]
				}
			}]
		}`))
	}))
	defer server.Close()

	threads, err := newTestClient(server.URL).ListCommentThreads(context.Background(), "tok", "vid-1")

	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "thread-1", threads[0].ThreadID)
	assert.Equal(t, "c1", threads[0].Top.PlatformID)
	assert.Equal(t, "A", threads[0].Top.AuthorName)
	assert.Equal(t, int64(2), threads[0].Top.LikeCount)
	assert.Equal(t, int64(7), threads[0].ReplyCount, "reply count may exceed fetched replies")
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "r1", threads[0].Replies[0].PlatformID)
}

func TestListCommentThreads_CommentsDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{
			"error": {
				"code": 403,
				"message": "The video identified by videoId has disabled comments.",
				"errors": [{"reason": "commentsDisabled"}]
			}
		}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListCommentThreads(context.Background(), "tok", "vid-1")

	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.True(t, apiErr.HasReason(ReasonCommentsDisabled))
}

func TestInsertThread(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/commentThreads", r.URL.Path)

		var body commentThreadInsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "vid-1", body.Snippet.VideoID)
		assert.Equal(t, "nice video", body.Snippet.TopLevelComment.Snippet.TextOriginal)

		w.Write([]byte(`{
			"id": "thread-9",
			"snippet": {"topLevelComment": {"id": "c9"}}
		}`))
	}))
	defer server.Close()

	platformID, err := newTestClient(server.URL).InsertThread(context.Background(), "tok", "vid-1", "nice video")

	require.NoError(t, err)
	assert.Equal(t, "c9", platformID, "deletion addresses the comment, not the thread")
}

func TestInsertReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/comments", r.URL.Path)

		var body commentInsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "c1", body.Snippet.ParentID)

		w.Write([]byte(`{"id": "r9"}`))
	}))
	defer server.Close()

	platformID, err := newTestClient(server.URL).InsertReply(context.Background(), "tok", "c1", "thanks!")

	require.NoError(t, err)
	assert.Equal(t, "r9", platformID)
}

func TestDeleteComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "c9", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := newTestClient(server.URL).DeleteComment(context.Background(), "tok", "c9")

	assert.NoError(t, err)
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": {"code": 503, "message": "Backend Error", "errors": [{"reason": "backendError"}]}}`))
			return
		}
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListVideos(context.Background(), "tok", []string{"vid-1"})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls, "transient failure retried once")
}

func TestPostIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"code": 503, "message": "Backend Error"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).InsertThread(context.Background(), "tok", "vid-1", "text")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls, "mutations fail to the user for manual retry")
}
