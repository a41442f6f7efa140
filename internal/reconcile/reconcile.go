// Package reconcile joins comment threads fetched live from the video
// platform with locally stored ownership records to decide which comments the
// current user may delete through this application. The join is pure: it
// never mutates its inputs and never performs I/O, so callers own the
// fetching and the failure policy around it.
package reconcile

// BuildIndex constructs the platform-to-local identifier mapping from a
// single scan of records. The mapping must behave one-to-one: when duplicate
// platform IDs occur (a retried post can leave two rows for one comment) the
// smallest LocalID wins, so the result is deterministic regardless of row
// order. Records without a platform ID are skipped.
func BuildIndex(records []LocalCommentRecord) map[string]int64 {
	index := make(map[string]int64, len(records))
	for _, rec := range records {
		if rec.PlatformID == "" {
			continue
		}
		if existing, ok := index[rec.PlatformID]; ok && existing <= rec.LocalID {
			continue
		}
		index[rec.PlatformID] = rec.LocalID
	}
	return index
}

// Reconcile decorates every top-level comment and reply in threads with its
// deletion handle, looked up by platform ID in the index built from records.
// The output is freshly allocated; neither input is altered. Empty inputs
// yield an empty or fully non-deletable result, never an error.
func Reconcile(threads []RemoteCommentThread, records []LocalCommentRecord) []DecoratedThread {
	index := BuildIndex(records)

	decorated := make([]DecoratedThread, 0, len(threads))
	for _, thread := range threads {
		out := DecoratedThread{
			ThreadID:   thread.ThreadID,
			Top:        decorate(thread.Top, index),
			Replies:    make([]DecoratedComment, 0, len(thread.Replies)),
			ReplyCount: thread.ReplyCount,
		}
		for _, reply := range thread.Replies {
			out.Replies = append(out.Replies, decorate(reply, index))
		}
		decorated = append(decorated, out)
	}
	return decorated
}

func decorate(c RemoteComment, index map[string]int64) DecoratedComment {
	dc := DecoratedComment{RemoteComment: c}
	if localID, ok := index[c.PlatformID]; ok && c.PlatformID != "" {
		dc.Deletable = true
		dc.LocalID = localID
	}
	return dc
}

// MarkDeleted returns the working set with the record for localID pruned.
// The caller applies this after the mutation service confirms a delete, then
// re-fetches the remote threads before reconciling again: deleting a
// top-level comment may cascade to its replies on the platform side, and the
// model re-derives deletability from a fresh fetch rather than guessing.
func MarkDeleted(records []LocalCommentRecord, localID int64) []LocalCommentRecord {
	pruned := make([]LocalCommentRecord, 0, len(records))
	for _, rec := range records {
		if rec.LocalID == localID {
			continue
		}
		pruned = append(pruned, rec)
	}
	return pruned
}
