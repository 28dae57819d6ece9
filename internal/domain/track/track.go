// Package track provides the Track and QueueItem domain entities.
package track

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Track represents the immutable identity of a playable track.
type Track struct {
	ID       string        // Video ID
	Title    string        // Track title
	Channel  string        // Channel / uploader name
	Duration time.Duration // Track duration (0 if unknown, e.g. live content)
}

// URL returns the watch URL for the track.
func (t Track) URL() string {
	return "https://www.youtube.com/watch?v=" + t.ID
}

// QueueItem represents a track held by a play queue, together with its
// playback resume offset. Items are owned by the queue that holds them.
type QueueItem struct {
	Track          Track
	AddedAt        time.Time     // Time when added to the queue
	ResumePosition time.Duration // Last known playback offset, never negative
}

// SearchResult is the record shape produced by an external search collaborator.
type SearchResult struct {
	ID       string
	Title    string
	Channel  string
	Duration time.Duration
}

// FromSearchResult creates a queue item from a search result.
// The resume position starts at zero and AddedAt is the current time.
func FromSearchResult(r SearchResult) QueueItem {
	return QueueItem{
		Track: Track{
			ID:       r.ID,
			Title:    r.Title,
			Channel:  r.Channel,
			Duration: r.Duration,
		},
		AddedAt: time.Now(),
	}
}

// Record is the persisted-snapshot shape of a queue item. All fields are
// required; a record missing any of them is malformed.
type Record struct {
	ID              string  `json:"video_id" mapstructure:"video_id" validate:"required"`
	Title           string  `json:"title" mapstructure:"title" validate:"required"`
	Channel         string  `json:"channel" mapstructure:"channel" validate:"required"`
	DurationSeconds int     `json:"duration" mapstructure:"duration" validate:"gte=0"`
	AddedAt         float64 `json:"added_at" mapstructure:"added_at" validate:"required"`
	PositionSeconds int     `json:"playback_position" mapstructure:"playback_position" validate:"gte=0"`
}

var recordValidate = validator.New()

// FromRecord creates a queue item from a persisted record.
// Fails fast on a malformed record; the caller is expected to fall back to an
// empty queue.
func FromRecord(r Record) (QueueItem, error) {
	if err := recordValidate.Struct(r); err != nil {
		return QueueItem{}, errors.Wrap(err, "malformed queue item record")
	}
	sec := int64(r.AddedAt)
	frac := r.AddedAt - float64(sec)
	return QueueItem{
		Track: Track{
			ID:       r.ID,
			Title:    r.Title,
			Channel:  r.Channel,
			Duration: time.Duration(r.DurationSeconds) * time.Second,
		},
		AddedAt:        time.Unix(sec, int64(frac*float64(time.Second))),
		ResumePosition: time.Duration(r.PositionSeconds) * time.Second,
	}, nil
}

// Record converts the queue item to its persisted-snapshot shape.
func (i QueueItem) Record() Record {
	return Record{
		ID:              i.Track.ID,
		Title:           i.Track.Title,
		Channel:         i.Track.Channel,
		DurationSeconds: int(i.Track.Duration / time.Second),
		AddedAt:         float64(i.AddedAt.UnixNano()) / float64(time.Second),
		PositionSeconds: int(i.ResumePosition / time.Second),
	}
}
