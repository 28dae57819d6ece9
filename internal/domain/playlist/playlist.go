// Package playlist provides the Playlist domain entity used for queue
// import and export.
package playlist

import (
	"time"

	"github.com/osa030/queuebox/internal/domain/track"
)

// Playlist represents a named, exportable collection of tracks.
type Playlist struct {
	Name        string        // Playlist name
	Description string        // Playlist description
	Tracks      []track.Track // Tracks in order
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
