package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSearchResult(t *testing.T) {
	before := time.Now()
	item := FromSearchResult(SearchResult{
		ID:       "dQw4w9WgXcQ",
		Title:    "Test Song",
		Channel:  "Test Channel",
		Duration: 3 * time.Minute,
	})

	assert.Equal(t, "dQw4w9WgXcQ", item.Track.ID)
	assert.Equal(t, "Test Song", item.Track.Title)
	assert.Equal(t, "Test Channel", item.Track.Channel)
	assert.Equal(t, 3*time.Minute, item.Track.Duration)
	assert.Equal(t, time.Duration(0), item.ResumePosition)
	assert.False(t, item.AddedAt.Before(before))
}

func TestFromRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{
			name: "valid record",
			record: Record{
				ID:              "abc123def45",
				Title:           "Some Track",
				Channel:         "Some Channel",
				DurationSeconds: 245,
				AddedAt:         1700000000.5,
				PositionSeconds: 30,
			},
			wantErr: false,
		},
		{
			name: "zero duration is allowed for live content",
			record: Record{
				ID:      "live0000001",
				Title:   "Live Stream",
				Channel: "News",
				AddedAt: 1700000000,
			},
			wantErr: false,
		},
		{
			name: "missing video id",
			record: Record{
				Title:   "Some Track",
				Channel: "Some Channel",
				AddedAt: 1700000000,
			},
			wantErr: true,
		},
		{
			name: "missing title",
			record: Record{
				ID:      "abc123def45",
				Channel: "Some Channel",
				AddedAt: 1700000000,
			},
			wantErr: true,
		},
		{
			name: "missing channel",
			record: Record{
				ID:      "abc123def45",
				Title:   "Some Track",
				AddedAt: 1700000000,
			},
			wantErr: true,
		},
		{
			name: "missing added_at",
			record: Record{
				ID:      "abc123def45",
				Title:   "Some Track",
				Channel: "Some Channel",
			},
			wantErr: true,
		},
		{
			name: "negative resume position",
			record: Record{
				ID:              "abc123def45",
				Title:           "Some Track",
				Channel:         "Some Channel",
				AddedAt:         1700000000,
				PositionSeconds: -5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := FromRecord(tt.record)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.record.ID, item.Track.ID)
			assert.Equal(t, time.Duration(tt.record.DurationSeconds)*time.Second, item.Track.Duration)
			assert.Equal(t, time.Duration(tt.record.PositionSeconds)*time.Second, item.ResumePosition)
		})
	}
}

func TestQueueItem_Record_RoundTrip(t *testing.T) {
	item := QueueItem{
		Track: Track{
			ID:       "xyz987zyx65",
			Title:    "Round Trip",
			Channel:  "Testers",
			Duration: 200 * time.Second,
		},
		AddedAt:        time.Unix(1700000123, 0),
		ResumePosition: 42 * time.Second,
	}

	restored, err := FromRecord(item.Record())
	require.NoError(t, err)

	assert.Equal(t, item.Track, restored.Track)
	assert.Equal(t, item.ResumePosition, restored.ResumePosition)
	assert.WithinDuration(t, item.AddedAt, restored.AddedAt, time.Millisecond)
}

func TestTrack_URL(t *testing.T) {
	tr := Track{ID: "dQw4w9WgXcQ"}
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", tr.URL())
}
