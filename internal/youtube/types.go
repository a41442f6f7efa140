package youtube

import "time"

// Video is the flattened shape handlers serve, assembled from the snippet
// and statistics parts.
type Video struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	PublishedAt time.Time  `json:"published_at"`
	Stats       VideoStats `json:"stats"`
}

// VideoStats carries the public counters. The API returns them as strings;
// they are parsed on decode.
type VideoStats struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// Channel identifies the authenticated user's channel and its uploads
// playlist.
type Channel struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	UploadsPlaylist string `json:"uploads_playlist"`
}

// Wire structs below mirror the YouTube Data API v3 JSON.

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type videoSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt,omitempty"`
	ChannelID   string `json:"channelId,omitempty"`
	CategoryID  string `json:"categoryId,omitempty"`
	// Tags must round-trip through metadata updates or YouTube drops them.
	Tags       []string `json:"tags,omitempty"`
	Thumbnails struct {
		Medium struct {
			URL string `json:"url"`
		} `json:"medium"`
		Default struct {
			URL string `json:"url"`
		} `json:"default"`
	} `json:"thumbnails,omitempty"`
}

type videoStatistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

type videoResource struct {
	ID         string          `json:"id"`
	Snippet    videoSnippet    `json:"snippet"`
	Statistics videoStatistics `json:"statistics"`
}

type videoListResponse struct {
	Items []videoResource `json:"items"`
}

type videoUpdateRequest struct {
	ID      string       `json:"id"`
	Snippet videoSnippet `json:"snippet"`
}

type commentSnippet struct {
	AuthorDisplayName string `json:"authorDisplayName"`
	TextDisplay       string `json:"textDisplay"`
	TextOriginal      string `json:"textOriginal,omitempty"`
	LikeCount         int64  `json:"likeCount"`
	PublishedAt       string `json:"publishedAt"`
	ParentID          string `json:"parentId,omitempty"`
	VideoID           string `json:"videoId,omitempty"`
}

type commentResource struct {
	ID      string         `json:"id"`
	Snippet commentSnippet `json:"snippet"`
}

type commentThreadResource struct {
	ID      string `json:"id"`
	Snippet struct {
		TopLevelComment commentResource `json:"topLevelComment"`
		TotalReplyCount int64           `json:"totalReplyCount"`
	} `json:"snippet"`
	Replies struct {
		Comments []commentResource `json:"comments"`
	} `json:"replies"`
}

type commentThreadListResponse struct {
	Items         []commentThreadResource `json:"items"`
	NextPageToken string                  `json:"nextPageToken"`
}

type commentThreadInsertRequest struct {
	Snippet struct {
		VideoID         string `json:"videoId"`
		TopLevelComment struct {
			Snippet struct {
				TextOriginal string `json:"textOriginal"`
			} `json:"snippet"`
		} `json:"topLevelComment"`
	} `json:"snippet"`
}

type commentInsertRequest struct {
	Snippet struct {
		ParentID     string `json:"parentId"`
		TextOriginal string `json:"textOriginal"`
	} `json:"snippet"`
}
