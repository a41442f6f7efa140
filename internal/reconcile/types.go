package reconcile

import "time"

// RemoteComment is a single comment as returned by the video platform.
// LikeCount is only populated on top-level comments.
type RemoteComment struct {
	PlatformID  string    `json:"platform_id"`
	AuthorName  string    `json:"author_name"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	LikeCount   int64     `json:"like_count"`
}

// RemoteCommentThread is a top-level comment plus its fetched replies.
// ReplyCount comes from the platform and may exceed len(Replies) when the
// platform paginates replies separately; unfetched replies are simply not
// part of the merged view.
type RemoteCommentThread struct {
	ThreadID   string          `json:"thread_id"`
	Top        RemoteComment   `json:"top"`
	Replies    []RemoteComment `json:"replies"`
	ReplyCount int64           `json:"reply_count"`
}

// LocalCommentRecord is an ownership row for a comment posted through this
// application. LocalID is the handle used for deletion.
type LocalCommentRecord struct {
	LocalID          int64   `json:"local_id"`
	PlatformID       string  `json:"platform_id"`
	ParentPlatformID *string `json:"parent_platform_id,omitempty"`
}

// DecoratedComment is a remote comment annotated with its deletion handle.
// LocalID is only meaningful when Deletable is true.
type DecoratedComment struct {
	RemoteComment
	Deletable bool  `json:"deletable"`
	LocalID   int64 `json:"local_id,omitempty"`
}

// DecoratedThread mirrors RemoteCommentThread with decorated comments.
type DecoratedThread struct {
	ThreadID   string             `json:"thread_id"`
	Top        DecoratedComment   `json:"top"`
	Replies    []DecoratedComment `json:"replies"`
	ReplyCount int64              `json:"reply_count"`
}

// View is the reconciled comment view for one video. DeletabilityDegraded is
// set when the local record fetch failed and every comment was marked
// non-deletable as the safe default.
type View struct {
	VideoID              string            `json:"video_id"`
	Threads              []DecoratedThread `json:"threads"`
	DeletabilityDegraded bool              `json:"deletability_degraded"`
}
