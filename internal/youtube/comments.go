package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tubedesk/internal/reconcile"
)

// ListCommentThreads fetches the first page of comment threads for a video
// in plain text, mapped to the reconciliation model's thread shape.
// TotalReplyCount can exceed the replies returned here because the API
// paginates replies separately; unfetched replies stay out of the view.
func (c *Client) ListCommentThreads(ctx context.Context, token, videoID string) ([]reconcile.RemoteCommentThread, error) {
	query := url.Values{}
	query.Set("part", "snippet,replies")
	query.Set("videoId", videoID)
	query.Set("maxResults", "50")
	query.Set("textFormat", "plainText")
	query.Set("order", "time")

	var resp commentThreadListResponse
	if err := c.getJSON(ctx, token, "/commentThreads", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch comment threads for %s: %w", videoID, err)
	}

	threads := make([]reconcile.RemoteCommentThread, 0, len(resp.Items))
	for _, item := range resp.Items {
		thread := reconcile.RemoteCommentThread{
			ThreadID:   item.ID,
			Top:        toRemoteComment(item.Snippet.TopLevelComment),
			Replies:    make([]reconcile.RemoteComment, 0, len(item.Replies.Comments)),
			ReplyCount: item.Snippet.TotalReplyCount,
		}
		for _, reply := range item.Replies.Comments {
			thread.Replies = append(thread.Replies, toRemoteComment(reply))
		}
		threads = append(threads, thread)
	}

	return threads, nil
}

// InsertThread posts a new top-level comment and returns the platform ID of
// the created comment (not the thread ID; deletion addresses the comment).
func (c *Client) InsertThread(ctx context.Context, token, videoID, text string) (string, error) {
	query := url.Values{}
	query.Set("part", "snippet")

	var body commentThreadInsertRequest
	body.Snippet.VideoID = videoID
	body.Snippet.TopLevelComment.Snippet.TextOriginal = text

	var created commentThreadResource
	if err := c.doJSON(ctx, token, http.MethodPost, "/commentThreads", query, body, &created); err != nil {
		return "", fmt.Errorf("failed to post comment on %s: %w", videoID, err)
	}

	return created.Snippet.TopLevelComment.ID, nil
}

// InsertReply posts a reply under the given parent comment and returns the
// new comment's platform ID.
func (c *Client) InsertReply(ctx context.Context, token, parentID, text string) (string, error) {
	query := url.Values{}
	query.Set("part", "snippet")

	var body commentInsertRequest
	body.Snippet.ParentID = parentID
	body.Snippet.TextOriginal = text

	var created commentResource
	if err := c.doJSON(ctx, token, http.MethodPost, "/comments", query, body, &created); err != nil {
		return "", fmt.Errorf("failed to post reply to %s: %w", parentID, err)
	}

	return created.ID, nil
}

// DeleteComment removes a comment by its platform ID.
func (c *Client) DeleteComment(ctx context.Context, token, platformID string) error {
	query := url.Values{}
	query.Set("id", platformID)

	if err := c.doJSON(ctx, token, http.MethodDelete, "/comments", query, nil, nil); err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", platformID, err)
	}

	return nil
}

func toRemoteComment(item commentResource) reconcile.RemoteComment {
	publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	return reconcile.RemoteComment{
		PlatformID:  item.ID,
		AuthorName:  item.Snippet.AuthorDisplayName,
		Text:        item.Snippet.TextDisplay,
		PublishedAt: publishedAt,
		LikeCount:   item.Snippet.LikeCount,
	}
}
