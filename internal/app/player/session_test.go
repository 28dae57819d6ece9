package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/queuebox/internal/app/queue"
	"github.com/osa030/queuebox/internal/domain/track"
)

// memStore is an in-memory SnapshotStore for tests.
type memStore struct {
	snap  queue.Snapshot
	saved bool
}

func (m *memStore) SaveQueue(_ context.Context, s queue.Snapshot) error {
	m.snap = s
	m.saved = true
	return nil
}

func (m *memStore) LoadQueue(context.Context) (queue.Snapshot, bool, error) {
	return m.snap, m.saved, nil
}

func result(id string) track.SearchResult {
	return track.SearchResult{ID: id, Title: "Title " + id, Channel: "Ch", Duration: time.Minute}
}

func drain(s *Session) []Event {
	var out []Event
	for {
		select {
		case e := <-s.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession(nil)

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, StateIdle, s.State())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_EnqueueAndPlay(t *testing.T) {
	s := NewSession(nil)

	assert.Equal(t, 0, s.Enqueue(result("a")))
	assert.Equal(t, 1, s.Enqueue(result("b")))

	item, ok := s.PlayIndex(0)
	require.True(t, ok)
	assert.Equal(t, "a", item.Track.ID)
	assert.Equal(t, StatePlaying, s.State())

	item, ok = s.Next()
	require.True(t, ok)
	assert.Equal(t, "b", item.Track.ID)

	// Past the end under repeat none: playback stops.
	_, ok = s.Next()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, s.State())

	events := drain(s)
	var ended bool
	for _, e := range events {
		if e.Type == EventQueueEnded {
			ended = true
		}
	}
	assert.True(t, ended)
}

func TestSession_PauseResumeStop(t *testing.T) {
	s := NewSession(nil)
	s.Enqueue(result("a"))

	// Pause without playback is a no-op.
	s.Pause()
	assert.Equal(t, StateIdle, s.State())

	s.PlayIndex(0)
	s.Pause()
	assert.Equal(t, StatePaused, s.State())
	s.Resume()
	assert.Equal(t, StatePlaying, s.State())
	s.Stop()
	assert.Equal(t, StateIdle, s.State())

	// Cursor survives a stop.
	item, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", item.Track.ID)
}

func TestSession_QueueEditing(t *testing.T) {
	s := NewSession(nil)
	for _, id := range []string{"a", "b", "c"} {
		s.Enqueue(result(id))
	}
	s.PlayIndex(1)

	require.True(t, s.MoveTrack(1, 2))
	item, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "b", item.Track.ID)

	_, ok = s.RemoveTrack(5)
	assert.False(t, ok)

	removed, ok := s.RemoveTrack(0)
	require.True(t, ok)
	assert.Equal(t, "a", removed.Track.ID)

	s.ClearQueue()
	assert.Equal(t, StateIdle, s.State())
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestSession_ShuffleAndRepeat(t *testing.T) {
	s := NewSession(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Enqueue(result(id))
	}
	s.PlayIndex(2)
	before, _ := s.Current()

	assert.True(t, s.ToggleShuffle())
	after, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, before.Track.ID, after.Track.ID)
	assert.False(t, s.ToggleShuffle())

	assert.Equal(t, queue.RepeatOne, s.CycleRepeat())
	assert.Equal(t, queue.RepeatAll, s.CycleRepeat())
	assert.Equal(t, queue.RepeatNone, s.CycleRepeat())
}

func TestSession_ReportPosition(t *testing.T) {
	s := NewSession(nil)
	s.Enqueue(result("a"))
	s.PlayIndex(0)

	s.ReportPosition(45 * time.Second)

	item, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 45*time.Second, item.ResumePosition)
}

func TestSession_SaveAndRestore(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()

	s := NewSession(store)
	require.NoError(t, s.Restore(ctx)) // nothing saved yet
	s.Enqueue(result("a"))
	s.Enqueue(result("b"))
	s.PlayIndex(1)
	s.ReportPosition(30 * time.Second)
	require.NoError(t, s.Save(ctx))

	fresh := NewSession(store)
	require.NoError(t, fresh.Restore(ctx))

	item, ok := fresh.Current()
	require.True(t, ok)
	assert.Equal(t, "b", item.Track.ID)
	assert.Equal(t, 30*time.Second, item.ResumePosition)
}

func TestSession_Restore_CorruptSnapshotFallsBackEmpty(t *testing.T) {
	store := &memStore{
		saved: true,
		snap: queue.Snapshot{
			Items:  []track.Record{{Title: "no id"}},
			Cursor: 0,
		},
	}

	s := NewSession(store)
	require.NoError(t, s.Restore(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_SleepTimer(t *testing.T) {
	s := NewSession(nil)
	s.Enqueue(result("a"))
	s.PlayIndex(0)

	assert.Error(t, s.StartSleepTimer(0))

	require.NoError(t, s.StartSleepTimer(0.001))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, StatePaused, s.State())
	events := drain(s)
	var expired bool
	for _, e := range events {
		if e.Type == EventSleepExpired {
			expired = true
		}
	}
	assert.True(t, expired)
	assert.Equal(t, time.Duration(0), s.SleepTimerRemaining())
}

func TestSession_StopSleepTimer(t *testing.T) {
	s := NewSession(nil)
	s.Enqueue(result("a"))
	s.PlayIndex(0)

	require.NoError(t, s.StartSleepTimer(10))
	assert.Greater(t, s.SleepTimerRemaining(), time.Duration(0))
	s.StopSleepTimer()

	assert.Equal(t, time.Duration(0), s.SleepTimerRemaining())
	assert.Equal(t, StatePlaying, s.State())
}

func TestSession_CloseSavesSnapshot(t *testing.T) {
	store := &memStore{}
	s := NewSession(store)
	s.Enqueue(result("a"))
	require.NoError(t, s.StartSleepTimer(10))

	require.NoError(t, s.Close(context.Background()))

	assert.True(t, store.saved)
	require.Len(t, store.snap.Items, 1)
}

func TestSession_CloseIdempotent(t *testing.T) {
	s := NewSession(&memStore{})
	s.Enqueue(result("a"))

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	// Operations after Close must not panic; their events are discarded.
	assert.NotPanics(t, func() {
		s.Enqueue(result("b"))
		s.Stop()
	})
}
