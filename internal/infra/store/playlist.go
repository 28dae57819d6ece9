package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/queuebox/internal/domain/playlist"
	"github.com/osa030/queuebox/internal/domain/track"
)

// playlistJSON is the on-disk JSON playlist shape.
type playlistJSON struct {
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	TrackCount    int                `json:"track_count"`
	TotalDuration int                `json:"total_duration"`
	Tracks        []playlistItemJSON `json:"tracks"`
}

type playlistItemJSON struct {
	ID       string `json:"video_id"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
}

// ExportPlaylist writes p to path. The format is chosen by extension:
// .json, or .m3u/.m3u8.
func ExportPlaylist(p playlist.Playlist, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create export directory")
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = exportJSON(p, path)
	case ".m3u", ".m3u8":
		err = exportM3U(p, path)
	default:
		return errors.Newf("unknown export format: %s", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	zlog.Info().Msgf("store: exported %d track(s) to %s", len(p.Tracks), path)
	return nil
}

// ImportPlaylist reads a playlist from path, format chosen by extension.
func ImportPlaylist(path string) (playlist.Playlist, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return importJSON(path)
	case ".m3u", ".m3u8":
		return importM3U(path)
	default:
		return playlist.Playlist{}, errors.Newf("unknown import format: %s", filepath.Ext(path))
	}
}

func exportJSON(p playlist.Playlist, path string) error {
	doc := playlistJSON{
		Name:          p.Name,
		Description:   p.Description,
		TrackCount:    len(p.Tracks),
		TotalDuration: int(p.TotalDuration() / time.Second),
		Tracks:        make([]playlistItemJSON, 0, len(p.Tracks)),
	}
	for _, t := range p.Tracks {
		doc.Tracks = append(doc.Tracks, playlistItemJSON{
			ID:       t.ID,
			Title:    t.Title,
			Channel:  t.Channel,
			Duration: int(t.Duration / time.Second),
			URL:      t.URL(),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode playlist")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "failed to write playlist")
}

func exportM3U(p playlist.Playlist, path string) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#PLAYLIST:%s\n", p.Name)
	for _, t := range p.Tracks {
		fmt.Fprintf(&b, "#EXTINF:%d,%s - %s\n", int(t.Duration/time.Second), t.Title, t.Channel)
		b.WriteString(t.URL())
		b.WriteString("\n")
	}
	return errors.Wrap(os.WriteFile(path, []byte(b.String()), 0o644), "failed to write playlist")
}

func importJSON(path string) (playlist.Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return playlist.Playlist{}, errors.Wrap(err, "failed to read playlist")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return playlist.Playlist{}, errors.Wrap(err, "failed to parse playlist")
	}
	if _, ok := raw["tracks"]; !ok {
		return playlist.Playlist{}, errors.New("invalid JSON playlist: missing tracks")
	}

	var doc playlistJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return playlist.Playlist{}, errors.Wrap(err, "failed to parse playlist")
	}

	p := playlist.Playlist{
		Name:        doc.Name,
		Description: doc.Description,
	}
	if p.Name == "" {
		p.Name = stem(path)
	}
	for _, it := range doc.Tracks {
		p.Tracks = append(p.Tracks, track.Track{
			ID:       it.ID,
			Title:    it.Title,
			Channel:  it.Channel,
			Duration: time.Duration(it.Duration) * time.Second,
		})
	}
	return p, nil
}

var (
	extinfRe  = regexp.MustCompile(`^#EXTINF:(\d+),(.+)$`)
	videoIDRe = regexp.MustCompile(`(?:v=|/)([a-zA-Z0-9_-]{11})`)
)

func importM3U(path string) (playlist.Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return playlist.Playlist{}, errors.Wrap(err, "failed to read playlist")
	}

	p := playlist.Playlist{
		Name:        stem(path),
		Description: "Imported from " + filepath.Base(path),
	}

	var pending track.Track
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#PLAYLIST:"):
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "#PLAYLIST:"))
		case strings.HasPrefix(line, "#EXTINF:"):
			if m := extinfRe.FindStringSubmatch(line); m != nil {
				secs, _ := strconv.Atoi(m[1])
				pending = track.Track{
					Duration: time.Duration(secs) * time.Second,
					Title:    strings.TrimSpace(m[2]),
				}
			}
		case line != "" && !strings.HasPrefix(line, "#"):
			if m := videoIDRe.FindStringSubmatch(line); m != nil {
				t := pending
				t.ID = m[1]
				if t.Title == "" {
					t.Title = "Unknown"
				}
				t.Channel = "Unknown"
				p.Tracks = append(p.Tracks, t)
			}
			pending = track.Track{}
		}
	}
	return p, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
