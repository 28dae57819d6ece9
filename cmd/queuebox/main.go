// Package main provides the queuebox CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/queuebox/internal/app/queue"
	"github.com/osa030/queuebox/internal/domain/playlist"
	"github.com/osa030/queuebox/internal/domain/track"
	"github.com/osa030/queuebox/internal/infra/config"
	"github.com/osa030/queuebox/internal/infra/logger"
	"github.com/osa030/queuebox/internal/infra/store"
)

var (
	app        = kingpin.New("queuebox", "Playback queue manager")
	configPath = app.Flag("config", "Config file path").Default("config.yaml").String()

	// list command
	listCmd = app.Command("list", "Show the queue in play order").Alias("ls")

	// add command
	addCmd      = app.Command("add", "Add a track to the queue")
	addID       = addCmd.Arg("video-id", "Video ID").Required().String()
	addTitle    = addCmd.Flag("title", "Track title").Default("Unknown").String()
	addChannel  = addCmd.Flag("channel", "Channel name").Default("Unknown").String()
	addDuration = addCmd.Flag("duration", "Track duration in seconds").Int()

	// remove command
	removeCmd   = app.Command("remove", "Remove a track by its queue position").Alias("rm")
	removeIndex = removeCmd.Arg("index", "Zero-based queue position").Required().Int()

	// move command
	moveCmd  = app.Command("move", "Move a track to a new queue position")
	moveFrom = moveCmd.Arg("from", "Current position").Required().Int()
	moveTo   = moveCmd.Arg("to", "New position").Required().Int()

	// play command
	playCmd   = app.Command("play", "Jump to a track by its queue position")
	playIndex = playCmd.Arg("index", "Zero-based queue position").Required().Int()

	// next / prev commands
	nextCmd = app.Command("next", "Advance to the next track")
	prevCmd = app.Command("prev", "Go back to the previous track")

	// shuffle command
	shuffleCmd  = app.Command("shuffle", "Set or toggle shuffle")
	shuffleMode = shuffleCmd.Arg("mode", "on, off, or toggle").Default("toggle").Enum("on", "off", "toggle")

	// repeat command
	repeatCmd  = app.Command("repeat", "Set or cycle the repeat mode")
	repeatMode = repeatCmd.Arg("mode", "none, one, all, or cycle").Default("cycle").Enum("none", "one", "all", "cycle")

	// clear command
	clearCmd = app.Command("clear", "Remove every track from the queue")

	// export command
	exportCmd  = app.Command("export", "Export the queue as a playlist file (.json, .m3u)")
	exportPath = exportCmd.Arg("path", "Destination file").Required().String()
	exportName = exportCmd.Flag("name", "Playlist name").Default("queuebox export").String()

	// import command
	importCmd     = app.Command("import", "Append tracks from a playlist file (.json, .m3u)")
	importPath    = importCmd.Arg("path", "Source file").Required().String()
	importReplace = importCmd.Flag("replace", "Clear the queue before importing").Bool()
)

func main() {
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	st, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	q, err := loadQueue(ctx, st, cfg)
	if err != nil {
		fatalf("load queue: %v", err)
	}

	switch command {
	case listCmd.FullCommand():
		list(q)
	case addCmd.FullCommand():
		add(ctx, st, q)
	case removeCmd.FullCommand():
		remove(ctx, st, q, *removeIndex)
	case moveCmd.FullCommand():
		move(ctx, st, q, *moveFrom, *moveTo)
	case playCmd.FullCommand():
		play(ctx, st, q, *playIndex)
	case nextCmd.FullCommand():
		step(ctx, st, q, q.Next, "end of queue")
	case prevCmd.FullCommand():
		step(ctx, st, q, q.Previous, "start of queue")
	case shuffleCmd.FullCommand():
		shuffle(ctx, st, q, *shuffleMode)
	case repeatCmd.FullCommand():
		repeat(ctx, st, q, *repeatMode)
	case clearCmd.FullCommand():
		clear(ctx, st, q)
	case exportCmd.FullCommand():
		exportQueue(q, *exportPath, *exportName)
	case importCmd.FullCommand():
		importQueue(ctx, st, q, *importPath, *importReplace)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadQueue restores the persisted queue, falling back to an empty queue with
// the configured playback settings when nothing has been saved yet.
func loadQueue(ctx context.Context, st *store.SQLiteStore, cfg *config.Config) (*queue.PlayQueue, error) {
	q := queue.New()

	snap, ok, err := st.LoadQueue(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		q.SetRepeat(queue.ParseRepeatMode(cfg.Playback.RepeatMode))
		if cfg.Playback.Shuffle {
			q.Shuffle()
		}
		return q, nil
	}

	if err := q.Restore(snap); err != nil {
		zlog.Warn().Err(err).Msg("stored queue is unusable, starting empty")
	}
	return q, nil
}

func save(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue) {
	if err := st.SaveQueue(ctx, q.Snapshot()); err != nil {
		fatalf("save queue: %v", err)
	}
}

func list(q *queue.PlayQueue) {
	items := q.PlayOrder()
	if len(items) == 0 {
		fmt.Println("Queue is empty.")
		return
	}

	fmt.Printf("Queue: %d track(s), shuffle %s, repeat %s\n\n",
		len(items), onOff(q.Shuffled()), q.Repeat())
	for i, it := range items {
		marker := "  "
		if i == q.CursorIndex() {
			marker = "> "
		}
		fmt.Printf("%s%3d  %s  %s - %s  [%s]\n",
			marker, i, it.Track.ID, it.Track.Title, it.Track.Channel, formatDuration(it.Track.Duration))
	}
}

func add(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue) {
	pos := q.Add(track.QueueItem{
		Track: track.Track{
			ID:       *addID,
			Title:    *addTitle,
			Channel:  *addChannel,
			Duration: time.Duration(*addDuration) * time.Second,
		},
		AddedAt: time.Now(),
	})
	save(ctx, st, q)
	fmt.Printf("Added %s at position %d (%d in queue).\n", *addID, pos, q.Len())
}

func remove(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue, index int) {
	removed, ok := q.Remove(index)
	if !ok {
		fatalf("no track at position %d", index)
	}
	save(ctx, st, q)
	fmt.Printf("Removed %s (%s).\n", removed.Track.ID, removed.Track.Title)
}

func move(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue, from, to int) {
	if !q.Move(from, to) {
		fatalf("cannot move %d to %d", from, to)
	}
	save(ctx, st, q)
	fmt.Printf("Moved track from %d to %d.\n", from, to)
}

func play(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue, index int) {
	item, ok := q.JumpTo(index)
	if !ok {
		fatalf("no track at position %d", index)
	}
	save(ctx, st, q)
	printNowPlaying(item)
}

func step(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue,
	fn func() (track.QueueItem, bool), boundary string) {
	item, ok := fn()
	if !ok {
		fmt.Printf("Nothing to play: %s.\n", boundary)
		return
	}
	save(ctx, st, q)
	printNowPlaying(item)
}

func shuffle(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue, mode string) {
	switch mode {
	case "on":
		q.Shuffle()
	case "off":
		q.Unshuffle()
	default:
		q.ToggleShuffle()
	}
	save(ctx, st, q)
	fmt.Printf("Shuffle %s.\n", onOff(q.Shuffled()))
}

func repeat(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue, mode string) {
	if mode == "cycle" {
		q.CycleRepeat()
	} else {
		q.SetRepeat(queue.ParseRepeatMode(mode))
	}
	save(ctx, st, q)
	fmt.Printf("Repeat %s.\n", q.Repeat())
}

func clear(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue) {
	n := q.Len()
	q.Clear()
	save(ctx, st, q)
	fmt.Printf("Cleared %d track(s).\n", n)
}

func exportQueue(q *queue.PlayQueue, path, name string) {
	items := q.Items()
	p := playlist.Playlist{
		Name:        name,
		Description: "Exported " + time.Now().Format(time.DateOnly),
	}
	for _, it := range items {
		p.Tracks = append(p.Tracks, it.Track)
	}
	if err := store.ExportPlaylist(p, path); err != nil {
		fatalf("export: %v", err)
	}
	fmt.Printf("Exported %d track(s) to %s.\n", len(p.Tracks), path)
}

func importQueue(ctx context.Context, st *store.SQLiteStore, q *queue.PlayQueue, path string, replace bool) {
	p, err := store.ImportPlaylist(path)
	if err != nil {
		fatalf("import: %v", err)
	}
	if replace {
		q.Clear()
	}
	for _, t := range p.Tracks {
		q.Add(track.QueueItem{Track: t, AddedAt: time.Now()})
	}
	save(ctx, st, q)
	fmt.Printf("Imported %d track(s) from %q (%d in queue).\n", len(p.Tracks), p.Name, q.Len())
}

func printNowPlaying(item track.QueueItem) {
	fmt.Printf("Now playing: %s - %s [%s]\n", item.Track.Title, item.Track.Channel, formatDuration(item.Track.Duration))
	fmt.Println(item.Track.URL())
}

func formatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
