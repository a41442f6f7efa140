package comments

import (
	"errors"
	"fmt"
)

// ErrUnknownLocalComment means the deletion handle does not correspond to a
// comment posted through this dashboard.
var ErrUnknownLocalComment = errors.New("comment was not posted through this dashboard")

// RemoteUnavailableError blocks the comment view: live platform data could
// not be fetched, so no merged view can be trusted.
type RemoteUnavailableError struct {
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("live comment data unavailable: %v", e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// PostRejectedError means the platform refused the new comment (validation,
// rate limit, permission). Not retried automatically; the user retries.
type PostRejectedError struct {
	Err error
}

func (e *PostRejectedError) Error() string {
	return fmt.Sprintf("comment rejected by platform: %v", e.Err)
}

func (e *PostRejectedError) Unwrap() error { return e.Err }

// DeleteRejectedError means the platform refused the deletion. The local
// record is kept so the user can retry.
type DeleteRejectedError struct {
	Err error
}

func (e *DeleteRejectedError) Error() string {
	return fmt.Sprintf("deletion rejected by platform: %v", e.Err)
}

func (e *DeleteRejectedError) Unwrap() error { return e.Err }
