// Package queue provides the ordered play queue with cursor, shuffle and
// repeat semantics.
//
// PlayQueue performs no internal synchronization. All calls must be
// serialized by the caller: either confine the queue to a single goroutine or
// guard it with an external lock (see player.Session). This is a contract,
// not an enforced guarantee.
package queue

import (
	"math/rand"
	"slices"
	"time"

	"github.com/osa030/queuebox/internal/domain/track"
)

// PlayQueue holds queue items in canonical (insertion) order plus an optional
// shuffle projection over them.
//
// The cursor addresses the active order: the shuffle projection while shuffle
// is on, the canonical order otherwise. A cursor of -1 means nothing is
// selected. While shuffle is on, the projection is always a permutation of
// [0, len(items)).
type PlayQueue struct {
	items      []track.QueueItem
	cursor     int
	shuffled   bool
	projection []int
	repeat     RepeatMode
	rng        *rand.Rand
}

// New creates an empty play queue with a time-seeded random source.
func New() *PlayQueue {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates an empty play queue using the given random source for
// shuffling. Pass a fixed-seed source for deterministic shuffle order.
func NewWithRand(rng *rand.Rand) *PlayQueue {
	return &PlayQueue{
		items:  make([]track.QueueItem, 0),
		cursor: -1,
		rng:    rng,
	}
}

// canonical resolves an active-order slot to a canonical index.
// All navigation reads through this single indirection point.
func (q *PlayQueue) canonical(slot int) int {
	if q.shuffled {
		return q.projection[slot]
	}
	return slot
}

// Len returns the number of items in the queue.
func (q *PlayQueue) Len() int {
	return len(q.items)
}

// IsEmpty returns true if the queue has no items.
func (q *PlayQueue) IsEmpty() bool {
	return len(q.items) == 0
}

// CursorIndex returns the cursor position within the active order (-1 if none).
func (q *PlayQueue) CursorIndex() int {
	return q.cursor
}

// Shuffled returns true while a shuffle projection is active.
func (q *PlayQueue) Shuffled() bool {
	return q.shuffled
}

// Repeat returns the current repeat mode.
func (q *PlayQueue) Repeat() RepeatMode {
	return q.repeat
}

// SetRepeat sets the repeat mode.
func (q *PlayQueue) SetRepeat(m RepeatMode) {
	q.repeat = m
}

// CycleRepeat advances the repeat mode and returns the new one.
func (q *PlayQueue) CycleRepeat() RepeatMode {
	q.repeat = q.repeat.Cycle()
	return q.repeat
}

// Current returns the item at the cursor.
func (q *PlayQueue) Current() (track.QueueItem, bool) {
	if q.cursor < 0 || q.cursor >= len(q.items) {
		return track.QueueItem{}, false
	}
	return q.items[q.canonical(q.cursor)], true
}

// Add appends an item to the canonical order and returns its canonical
// position. While shuffled, the new item is appended to the end of the
// projection, so newly added tracks play last in shuffle order.
func (q *PlayQueue) Add(item track.QueueItem) int {
	q.items = append(q.items, item)
	pos := len(q.items) - 1
	if q.shuffled {
		q.projection = append(q.projection, pos)
	}
	return pos
}

// AddSearchResult converts a search result and appends it.
func (q *PlayQueue) AddSearchResult(r track.SearchResult) int {
	return q.Add(track.FromSearchResult(r))
}

// Remove removes the item at the given canonical index.
// Returns the removed item, or false if the index is out of range.
func (q *PlayQueue) Remove(index int) (track.QueueItem, bool) {
	if index < 0 || index >= len(q.items) {
		return track.QueueItem{}, false
	}

	removedSlot := index
	if q.shuffled {
		removedSlot = slices.Index(q.projection, index)
	}

	item := q.items[index]
	q.items = append(q.items[:index], q.items[index+1:]...)

	if q.shuffled {
		// Strip the removed canonical index and renumber the survivors so the
		// projection stays a permutation over the shrunk domain.
		kept := q.projection[:0]
		for _, ci := range q.projection {
			if ci == index {
				continue
			}
			if ci > index {
				ci--
			}
			kept = append(kept, ci)
		}
		q.projection = kept
	}

	if removedSlot < q.cursor {
		q.cursor--
	} else if removedSlot == q.cursor && q.cursor >= len(q.items) {
		q.cursor = len(q.items) - 1
	}

	return item, true
}

// Clear removes all items and resets the cursor.
func (q *PlayQueue) Clear() {
	q.items = q.items[:0]
	q.projection = q.projection[:0]
	q.cursor = -1
}

// Next advances the cursor and returns the new current item, subject to the
// repeat mode. Returns false when no further item exists; the cursor is left
// unchanged in that case.
func (q *PlayQueue) Next() (track.QueueItem, bool) {
	if len(q.items) == 0 {
		return track.QueueItem{}, false
	}
	if q.repeat == RepeatOne {
		return q.Current()
	}
	switch {
	case q.cursor < len(q.items)-1:
		q.cursor++
	case q.repeat == RepeatAll:
		q.cursor = 0
	default:
		return track.QueueItem{}, false
	}
	return q.Current()
}

// Previous retreats the cursor and returns the new current item, subject to
// the repeat mode. Returns false when no previous item exists; the cursor is
// left unchanged in that case.
func (q *PlayQueue) Previous() (track.QueueItem, bool) {
	if len(q.items) == 0 {
		return track.QueueItem{}, false
	}
	if q.repeat == RepeatOne {
		return q.Current()
	}
	switch {
	case q.cursor > 0:
		q.cursor--
	case q.repeat == RepeatAll:
		q.cursor = len(q.items) - 1
	default:
		return track.QueueItem{}, false
	}
	return q.Current()
}

// JumpTo moves the cursor to the item at the given canonical index.
// Returns false (cursor untouched) if the index is out of range.
func (q *PlayQueue) JumpTo(index int) (track.QueueItem, bool) {
	if index < 0 || index >= len(q.items) {
		return track.QueueItem{}, false
	}
	if q.shuffled {
		q.cursor = slices.Index(q.projection, index)
	} else {
		q.cursor = index
	}
	return q.Current()
}

// Shuffle enables shuffle mode. The currently playing item, if any, is
// relocated to the head of the projection so enabling shuffle never
// interrupts playback.
func (q *PlayQueue) Shuffle() {
	pinned := -1
	if q.cursor >= 0 && q.cursor < len(q.items) {
		pinned = q.canonical(q.cursor)
	}
	q.shuffled = true
	q.regenerateProjection(pinned)
}

// Unshuffle disables shuffle mode. The cursor is rewritten to the canonical
// index of the item at the current projection slot.
func (q *PlayQueue) Unshuffle() {
	if q.shuffled && q.cursor >= 0 && q.cursor < len(q.projection) {
		q.cursor = q.projection[q.cursor]
	}
	q.shuffled = false
	q.projection = q.projection[:0]
}

// ToggleShuffle flips shuffle mode and returns the new state.
func (q *PlayQueue) ToggleShuffle() bool {
	if q.shuffled {
		q.Unshuffle()
	} else {
		q.Shuffle()
	}
	return q.shuffled
}

// regenerateProjection builds a fresh uniformly random permutation of the
// canonical indices. If pinned >= 0, that canonical index is moved to
// projection slot 0 and the cursor set there.
func (q *PlayQueue) regenerateProjection(pinned int) {
	q.projection = q.projection[:0]
	for i := range q.items {
		q.projection = append(q.projection, i)
	}
	q.rng.Shuffle(len(q.projection), func(i, j int) {
		q.projection[i], q.projection[j] = q.projection[j], q.projection[i]
	})
	if pinned >= 0 {
		at := slices.Index(q.projection, pinned)
		q.projection = slices.Delete(q.projection, at, at+1)
		q.projection = slices.Insert(q.projection, 0, pinned)
		q.cursor = 0
	}
}

// Move repositions the item at canonical index from to canonical index to.
// Returns false on out-of-range indices. When the cursor targets the moved
// item it follows it; when the moved span crosses the cursor, the cursor
// shifts by one. While shuffled, the projection is discarded and regenerated
// around the current item rather than incrementally patched.
func (q *PlayQueue) Move(from, to int) bool {
	if from < 0 || from >= len(q.items) || to < 0 || to >= len(q.items) {
		return false
	}
	if from == to {
		return true
	}

	// Track the current item as a canonical index through the move.
	cur := -1
	if q.cursor >= 0 && q.cursor < len(q.items) {
		cur = q.canonical(q.cursor)
	}

	item := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)
	q.items = slices.Insert(q.items, to, item)

	if cur == from {
		cur = to
	} else if from < cur && cur <= to {
		cur--
	} else if to <= cur && cur < from {
		cur++
	}

	if q.shuffled {
		q.regenerateProjection(cur)
		if cur < 0 {
			q.cursor = -1
		}
	} else {
		q.cursor = cur
	}
	return true
}

// UpdateResumePosition records the playback offset for the item with the
// given track ID. Unknown IDs are ignored. Negative offsets are clamped to 0.
func (q *PlayQueue) UpdateResumePosition(id string, pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	for i := range q.items {
		if q.items[i].Track.ID == id {
			q.items[i].ResumePosition = pos
			return
		}
	}
}

// ResumePosition returns the saved playback offset for the item with the
// given track ID, or 0 when the ID is absent. Queues stay small (tens to low
// hundreds of entries), so a linear scan is fine.
func (q *PlayQueue) ResumePosition(id string) time.Duration {
	for i := range q.items {
		if q.items[i].Track.ID == id {
			return q.items[i].ResumePosition
		}
	}
	return 0
}

// Items returns a copy of the queue in canonical order.
func (q *PlayQueue) Items() []track.QueueItem {
	out := make([]track.QueueItem, len(q.items))
	copy(out, q.items)
	return out
}

// PlayOrder returns a copy of the queue in active order.
func (q *PlayQueue) PlayOrder() []track.QueueItem {
	out := make([]track.QueueItem, 0, len(q.items))
	for slot := range q.items {
		out = append(out, q.items[q.canonical(slot)])
	}
	return out
}

// Upcoming returns up to count items following the cursor in active order.
func (q *PlayQueue) Upcoming(count int) []track.QueueItem {
	out := make([]track.QueueItem, 0, count)
	for slot := q.cursor + 1; slot < len(q.items) && len(out) < count; slot++ {
		out = append(out, q.items[q.canonical(slot)])
	}
	return out
}
