// Package player coordinates a single playback session: one play queue and
// one sleep timer behind one lock, driven by an external frontend.
package player

// State represents the playback state of a session.
type State int

const (
	StateIdle    State = iota // Nothing selected or playback stopped
	StatePlaying              // A track is playing
	StatePaused               // Playback is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}
