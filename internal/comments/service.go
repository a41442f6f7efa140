package comments

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/tubedesk/internal/reconcile"
)

// snippetLimit bounds what lands in text_snippet; the full text lives on the
// platform.
const snippetLimit = 200

// RemoteAPI is the slice of the YouTube client this service needs.
// *youtube.Client satisfies it.
type RemoteAPI interface {
	ListCommentThreads(ctx context.Context, accessToken, videoID string) ([]reconcile.RemoteCommentThread, error)
	InsertThread(ctx context.Context, accessToken, videoID, text string) (string, error)
	InsertReply(ctx context.Context, accessToken, parentID, text string) (string, error)
	DeleteComment(ctx context.Context, accessToken, platformID string) error
}

// ActivityRecorder matches *eventlog.Recorder.
type ActivityRecorder interface {
	Record(ctx context.Context, action, details string, metadata map[string]interface{})
}

// Service merges remote threads with local records and carries posts and
// deletions through both sides. It keeps a ViewState stamped with the video
// the dashboard currently has open, so a slow fetch finishing after a video
// switch can never overwrite the newer selection's view.
type Service struct {
	remote RemoteAPI
	store  Store
	events ActivityRecorder
	state  *reconcile.ViewState
}

func NewService(remote RemoteAPI, store Store, events ActivityRecorder) *Service {
	return &Service{
		remote: remote,
		store:  store,
		events: events,
		state:  reconcile.NewViewState(""),
	}
}

// FetchView loads the merged comment view for a video. The remote threads
// and the local records are fetched concurrently and BOTH fetches are
// awaited before merging; a partial merge is never produced. A remote
// failure blocks the view; a local failure degrades it to all-non-deletable
// with the DeletabilityDegraded flag set.
func (s *Service) FetchView(ctx context.Context, accessToken, videoID string) (reconcile.View, error) {
	return s.fetchView(ctx, accessToken, videoID, 0)
}

// Current returns the last view accepted for the currently selected video.
func (s *Service) Current() (reconcile.View, bool) {
	return s.state.Current()
}

// LocalRecords lists the dashboard-posted comment rows for one video, the
// raw ownership data the merged view derives deletability from.
func (s *Service) LocalRecords(ctx context.Context, videoID string) ([]LocalComment, error) {
	localComments, err := s.store.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list local comment records: %w", err)
	}
	return localComments, nil
}

func (s *Service) fetchView(ctx context.Context, accessToken, videoID string, prunedLocalID int64) (reconcile.View, error) {
	s.state.Select(videoID)

	var (
		wg            sync.WaitGroup
		threads       []reconcile.RemoteCommentThread
		remoteErr     error
		localComments []LocalComment
		localErr      error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		threads, remoteErr = s.remote.ListCommentThreads(ctx, accessToken, videoID)
	}()
	go func() {
		defer wg.Done()
		localComments, localErr = s.store.ListByVideo(ctx, videoID)
	}()
	wg.Wait()

	if remoteErr != nil {
		return reconcile.View{}, &RemoteUnavailableError{Err: remoteErr}
	}

	view := reconcile.View{VideoID: videoID}
	if localErr != nil {
		log.Warn().Err(localErr).Str("video_id", videoID).
			Msg("local comment records unavailable, serving view without deletability")
		view.Threads = reconcile.Reconcile(threads, nil)
		view.DeletabilityDegraded = true
	} else {
		records := Records(localComments)
		if prunedLocalID != 0 {
			records = reconcile.MarkDeleted(records, prunedLocalID)
		}
		view.Threads = reconcile.Reconcile(threads, records)
	}

	if !s.state.Apply(view) {
		log.Debug().Str("video_id", videoID).Msg("discarded comment view superseded by a video switch")
	}
	return view, nil
}

// Post publishes a comment (top-level when parentPlatformID is nil, a reply
// otherwise), records it locally, then reloads the merged view. The reload
// does not start until the platform confirms the post.
func (s *Service) Post(ctx context.Context, accessToken, videoID, text string, parentPlatformID *string) (reconcile.View, error) {
	var platformID string
	var err error
	if parentPlatformID == nil {
		platformID, err = s.remote.InsertThread(ctx, accessToken, videoID, text)
	} else {
		platformID, err = s.remote.InsertReply(ctx, accessToken, *parentPlatformID, text)
	}
	if err != nil {
		return reconcile.View{}, &PostRejectedError{Err: err}
	}

	comment := &LocalComment{
		VideoID:          videoID,
		PlatformID:       platformID,
		ParentPlatformID: parentPlatformID,
		TextSnippet:      snippet(text),
	}
	if err := s.store.Insert(ctx, comment); err != nil {
		// The comment is live on the platform; losing the record only costs
		// deletability from this dashboard.
		log.Warn().Err(err).Str("platform_id", platformID).
			Msg("posted comment but failed to record it locally")
	}

	s.events.Record(ctx, "comment_posted", fmt.Sprintf("posted comment on video %s", videoID), map[string]interface{}{
		"video_id":    videoID,
		"platform_id": platformID,
		"reply":       parentPlatformID != nil,
	})

	return s.FetchView(ctx, accessToken, videoID)
}

// Delete removes a dashboard-posted comment from the platform, drops the
// local record, and returns a freshly fetched view. The record is pruned
// from the merge even when the local delete lags behind, so the response can
// never offer the dead handle again. Whether the platform cascaded the
// deletion to replies only the fresh fetch can tell.
func (s *Service) Delete(ctx context.Context, accessToken string, localID int64) (reconcile.View, error) {
	comment, err := s.store.GetByID(ctx, localID)
	if err != nil {
		return reconcile.View{}, fmt.Errorf("failed to resolve comment %d: %w", localID, err)
	}
	if comment == nil {
		return reconcile.View{}, ErrUnknownLocalComment
	}

	if err := s.remote.DeleteComment(ctx, accessToken, comment.PlatformID); err != nil {
		return reconcile.View{}, &DeleteRejectedError{Err: err}
	}

	if err := s.store.Delete(ctx, localID); err != nil {
		log.Warn().Err(err).Int64("local_id", localID).
			Msg("deleted on platform but failed to remove local record")
	}

	s.events.Record(ctx, "comment_deleted", fmt.Sprintf("deleted comment %s on video %s", comment.PlatformID, comment.VideoID), map[string]interface{}{
		"video_id":    comment.VideoID,
		"platform_id": comment.PlatformID,
		"local_id":    localID,
	})

	return s.fetchView(ctx, accessToken, comment.VideoID, localID)
}

func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLimit {
		return text
	}
	return string([]rune(text)[:snippetLimit])
}
