package player

import "github.com/osa030/queuebox/internal/domain/track"

// EventType represents a session event type.
type EventType int

const (
	EventTrackChanged   EventType = iota // A different track became current
	EventStateChanged                    // Playback state changed (play/pause/stop)
	EventQueueChanged                    // Queue contents changed
	EventShuffleChanged                  // Shuffle was toggled
	EventRepeatChanged                   // Repeat mode changed
	EventQueueEnded                      // Navigation ran past the end of the queue
	EventSleepExpired                    // Sleep timer fired
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventShuffleChanged:
		return "shuffle_changed"
	case EventRepeatChanged:
		return "repeat_changed"
	case EventQueueEnded:
		return "queue_ended"
	case EventSleepExpired:
		return "sleep_expired"
	default:
		return "unknown"
	}
}

// Event represents a session event.
type Event struct {
	Type  EventType
	Item  *track.QueueItem // Current item (nil for some events)
	State State            // Session state after the event
}
