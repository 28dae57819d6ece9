package queue

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/queuebox/internal/domain/track"
)

// Snapshot is the persisted shape of a play queue. The cursor is stored as
// the canonical index of the playing item so that restoring under shuffle can
// re-derive a fresh projection while keeping the same item playing.
type Snapshot struct {
	Items   []track.Record `json:"tracks"`
	Cursor  int            `json:"current_index"`
	Shuffle bool           `json:"shuffle_mode"`
	Repeat  string         `json:"repeat_mode"`
}

// Snapshot produces the persisted shape of the queue.
func (q *PlayQueue) Snapshot() Snapshot {
	records := make([]track.Record, len(q.items))
	for i, item := range q.items {
		records[i] = item.Record()
	}
	cursor := -1
	if q.cursor >= 0 && q.cursor < len(q.items) {
		cursor = q.canonical(q.cursor)
	}
	return Snapshot{
		Items:   records,
		Cursor:  cursor,
		Shuffle: q.shuffled,
		Repeat:  q.repeat.String(),
	}
}

// Restore fully replaces the queue state from a snapshot. A fresh shuffle
// projection is derived when the snapshot was taken with shuffle on. An
// out-of-range cursor resolves to -1. A malformed item record fails the whole
// restore and leaves the queue empty, so callers can fall back cleanly.
func (q *PlayQueue) Restore(s Snapshot) error {
	q.Clear()
	q.shuffled = false
	q.repeat = ParseRepeatMode(s.Repeat)

	for i, rec := range s.Items {
		item, err := track.FromRecord(rec)
		if err != nil {
			q.Clear()
			q.repeat = RepeatNone
			return errors.Wrapf(err, "snapshot item %d", i)
		}
		q.items = append(q.items, item)
	}

	cursor := s.Cursor
	if cursor < -1 || cursor >= len(q.items) {
		cursor = -1
	}

	if s.Shuffle {
		q.shuffled = true
		// Pins the cursor item at projection slot 0 when one is set.
		q.regenerateProjection(cursor)
		if cursor < 0 {
			q.cursor = -1
		}
	} else {
		q.cursor = cursor
	}
	return nil
}
