package player

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/queuebox/internal/app/queue"
	"github.com/osa030/queuebox/internal/app/sleeptimer"
	"github.com/osa030/queuebox/internal/domain/track"
)

// SnapshotStore persists queue snapshots for a session. Implemented by the
// storage collaborator; the session never touches a storage medium itself.
type SnapshotStore interface {
	SaveQueue(ctx context.Context, s queue.Snapshot) error
	// LoadQueue returns ok=false when no snapshot has been saved yet.
	LoadQueue(ctx context.Context) (s queue.Snapshot, ok bool, err error)
}

// Session owns a play queue and a sleep timer for one player instance.
//
// The queue itself is not synchronized; the session mutex is the
// serialization point required by its access contract. All exported methods
// are safe for concurrent use.
type Session struct {
	id    string
	store SnapshotStore

	mu     sync.Mutex
	queue  *queue.PlayQueue
	state  State
	closed bool

	timer  *sleeptimer.Timer
	events chan Event
}

// NewSession creates an idle session. store may be nil, in which case
// Restore and Save are no-ops.
func NewSession(store SnapshotStore) *Session {
	s := &Session{
		id:     uuid.New().String(),
		store:  store,
		queue:  queue.New(),
		state:  StateIdle,
		events: make(chan Event, 16),
	}
	s.timer = sleeptimer.New(s.onSleepExpired)
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Events returns the session event channel. Events are dropped rather than
// blocking a slow consumer.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current playback state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the current queue item.
func (s *Session) Current() (track.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Current()
}

// Queue runs fn with the session lock held, giving serialized access to the
// underlying queue for inspection.
func (s *Session) Queue(fn func(q *queue.PlayQueue)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.queue)
}

// Restore loads the persisted snapshot, replacing the session queue. A
// missing snapshot leaves the queue empty. A corrupt snapshot also falls
// back to an empty queue, logged but not fatal.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, ok, err := s.store.LoadQueue(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Restore(snap); err != nil {
		zlog.Warn().Msgf("session %s: discarding corrupt queue snapshot: %v", s.id, err)
		return nil
	}
	zlog.Info().Msgf("session %s: restored %d queued track(s)", s.id, s.queue.Len())
	return nil
}

// Save persists the current queue snapshot.
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	snap := s.queue.Snapshot()
	s.mu.Unlock()
	return s.store.SaveQueue(ctx, snap)
}

// Enqueue appends a search result to the queue and returns its canonical
// position.
func (s *Session) Enqueue(r track.SearchResult) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.queue.AddSearchResult(r)
	s.sendLocked(Event{Type: EventQueueChanged, State: s.state})
	return pos
}

// RemoveTrack removes the item at the given canonical index.
func (s *Session) RemoveTrack(index int) (track.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.queue.Remove(index)
	if ok {
		if s.queue.IsEmpty() {
			s.state = StateIdle
		}
		s.sendLocked(Event{Type: EventQueueChanged, State: s.state})
	}
	return item, ok
}

// MoveTrack repositions an item between canonical indices.
func (s *Session) MoveTrack(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.queue.Move(from, to)
	if ok {
		s.sendLocked(Event{Type: EventQueueChanged, State: s.state})
	}
	return ok
}

// ClearQueue empties the queue and stops playback.
func (s *Session) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Clear()
	s.state = StateIdle
	s.sendLocked(Event{Type: EventQueueChanged, State: s.state})
}

// PlayIndex jumps to the item at the given canonical index and starts
// playing it.
func (s *Session) PlayIndex(index int) (track.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.queue.JumpTo(index)
	if !ok {
		return track.QueueItem{}, false
	}
	s.state = StatePlaying
	s.sendLocked(Event{Type: EventTrackChanged, Item: &item, State: s.state})
	return item, true
}

// Next advances to the next track per the repeat mode. When the queue runs
// out, playback stops and an EventQueueEnded is emitted.
func (s *Session) Next() (track.QueueItem, bool) {
	return s.navigate((*queue.PlayQueue).Next)
}

// Previous retreats to the previous track per the repeat mode.
func (s *Session) Previous() (track.QueueItem, bool) {
	return s.navigate((*queue.PlayQueue).Previous)
}

func (s *Session) navigate(step func(*queue.PlayQueue) (track.QueueItem, bool)) (track.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := step(s.queue)
	if !ok {
		if s.state == StatePlaying {
			s.state = StateIdle
		}
		s.sendLocked(Event{Type: EventQueueEnded, State: s.state})
		return track.QueueItem{}, false
	}
	s.state = StatePlaying
	s.sendLocked(Event{Type: EventTrackChanged, Item: &item, State: s.state})
	return item, true
}

// Pause pauses playback. No-op unless playing.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return
	}
	s.state = StatePaused
	s.sendLocked(Event{Type: EventStateChanged, State: s.state})
}

// Resume resumes paused playback. No-op unless paused.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return
	}
	s.state = StatePlaying
	s.sendLocked(Event{Type: EventStateChanged, State: s.state})
}

// Stop stops playback, keeping the queue and cursor.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return
	}
	s.state = StateIdle
	s.sendLocked(Event{Type: EventStateChanged, State: s.state})
}

// ToggleShuffle flips shuffle mode and returns the new state.
func (s *Session) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := s.queue.ToggleShuffle()
	s.sendLocked(Event{Type: EventShuffleChanged, State: s.state})
	return on
}

// CycleRepeat advances the repeat mode and returns the new one.
func (s *Session) CycleRepeat() queue.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := s.queue.CycleRepeat()
	s.sendLocked(Event{Type: EventRepeatChanged, State: s.state})
	return mode
}

// ReportPosition records the playback offset of the current track so it can
// be resumed later.
func (s *Session) ReportPosition(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.queue.Current(); ok {
		s.queue.UpdateResumePosition(cur.Track.ID, pos)
	}
}

// StartSleepTimer arms the sleep timer for the given number of minutes.
func (s *Session) StartSleepTimer(minutes float64) error {
	// Not under the session lock: timer expiry takes the lock itself.
	return s.timer.Start(minutes)
}

// StopSleepTimer cancels the sleep timer. When it returns the expiry action
// is guaranteed not to run.
func (s *Session) StopSleepTimer() {
	s.timer.Stop()
}

// SleepTimerRemaining returns the time left on the sleep timer, 0 when not
// armed.
func (s *Session) SleepTimerRemaining() time.Duration {
	return s.timer.Remaining()
}

// onSleepExpired is the sleep timer expiry action: pause playback and notify.
func (s *Session) onSleepExpired(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePlaying {
		s.state = StatePaused
	}
	s.sendLocked(Event{Type: EventSleepExpired, State: s.state})
	return nil
}

// Close releases the sleep timer and performs a final snapshot save.
// Safe to call more than once; later calls are no-ops.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Stop the timer before touching session state so an in-flight expiry
	// cannot run concurrently with shutdown.
	s.timer.Stop()

	err := s.Save(ctx)

	s.mu.Lock()
	s.state = StateIdle
	close(s.events)
	s.mu.Unlock()
	return err
}

// sendLocked emits an event without blocking. Must be called with the
// session lock held; events raised after Close are discarded.
func (s *Session) sendLocked(e Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
		// Slow consumer, drop the event.
	}
}
