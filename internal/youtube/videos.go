package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxIDsPerCall is the API's cap on the id filter of videos.list.
const maxIDsPerCall = 50

// MyChannel resolves the authenticated user's channel and uploads playlist.
func (c *Client) MyChannel(ctx context.Context, token string) (*Channel, error) {
	query := url.Values{}
	query.Set("part", "snippet,contentDetails")
	query.Set("mine", "true")

	var resp channelListResponse
	if err := c.getJSON(ctx, token, "/channels", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch channel: %w", err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no channel found for the authenticated account")
	}

	item := resp.Items[0]
	return &Channel{
		ID:              item.ID,
		Title:           item.Snippet.Title,
		UploadsPlaylist: item.ContentDetails.RelatedPlaylists.Uploads,
	}, nil
}

// ListUploads walks the uploads playlist and returns video IDs, newest
// first, up to limit.
func (c *Client) ListUploads(ctx context.Context, token, playlistID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = maxIDsPerCall
	}

	ids := make([]string, 0, limit)
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("part", "contentDetails")
		query.Set("playlistId", playlistID)
		query.Set("maxResults", "50")
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var resp playlistItemsResponse
		if err := c.getJSON(ctx, token, "/playlistItems", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch uploads playlist: %w", err)
		}

		for _, item := range resp.Items {
			ids = append(ids, item.ContentDetails.VideoID)
			if len(ids) >= limit {
				return ids, nil
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ListVideos fetches snippet and statistics for the given IDs, chunking to
// the API's per-call cap. Order follows the input where the API preserves it.
func (c *Client) ListVideos(ctx context.Context, token string, ids []string) ([]Video, error) {
	videos := make([]Video, 0, len(ids))

	for start := 0; start < len(ids); start += maxIDsPerCall {
		end := start + maxIDsPerCall
		if end > len(ids) {
			end = len(ids)
		}

		query := url.Values{}
		query.Set("part", "snippet,statistics")
		query.Set("id", strings.Join(ids[start:end], ","))

		var resp videoListResponse
		if err := c.getJSON(ctx, token, "/videos", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch videos: %w", err)
		}

		for _, item := range resp.Items {
			videos = append(videos, toVideo(item))
		}
	}

	return videos, nil
}

// GetVideo fetches a single video; (nil, nil) when it does not exist.
func (c *Client) GetVideo(ctx context.Context, token, id string) (*Video, error) {
	query := url.Values{}
	query.Set("part", "snippet,statistics")
	query.Set("id", id)

	var resp videoListResponse
	if err := c.getJSON(ctx, token, "/videos", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch video %s: %w", id, err)
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	video := toVideo(resp.Items[0])
	return &video, nil
}

// UpdateVideoMetadata replaces the video's title and description. The full
// current snippet is fetched first and sent back with only those two fields
// changed, since the update endpoint overwrites the whole snippet part.
func (c *Client) UpdateVideoMetadata(ctx context.Context, token, id, title, description string) (*Video, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("id", id)

	var current videoListResponse
	if err := c.getJSON(ctx, token, "/videos", query, &current); err != nil {
		return nil, fmt.Errorf("failed to fetch current snippet for %s: %w", id, err)
	}
	if len(current.Items) == 0 {
		return nil, nil
	}

	update := videoUpdateRequest{ID: id, Snippet: current.Items[0].Snippet}
	update.Snippet.Title = title
	update.Snippet.Description = description
	// publishedAt is output-only on this endpoint
	update.Snippet.PublishedAt = ""

	updateQuery := url.Values{}
	updateQuery.Set("part", "snippet")

	var updated videoResource
	if err := c.doJSON(ctx, token, http.MethodPut, "/videos", updateQuery, update, &updated); err != nil {
		return nil, fmt.Errorf("failed to update video %s: %w", id, err)
	}

	video := toVideo(updated)
	return &video, nil
}

func toVideo(item videoResource) Video {
	publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)

	thumbnail := item.Snippet.Thumbnails.Medium.URL
	if thumbnail == "" {
		thumbnail = item.Snippet.Thumbnails.Default.URL
	}

	return Video{
		ID:          item.ID,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Thumbnail:   thumbnail,
		PublishedAt: publishedAt,
		Stats: VideoStats{
			Views:    parseCount(item.Statistics.ViewCount),
			Likes:    parseCount(item.Statistics.LikeCount),
			Comments: parseCount(item.Statistics.CommentCount),
		},
	}
}

// parseCount parses the API's string-typed counters; missing or malformed
// values count as zero.
func parseCount(raw string) int64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
