// Package store persists queue snapshots and playlists. It is the storage
// collaborator for a player session; the queue core never touches a storage
// medium itself.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/osa030/queuebox/internal/app/queue"
	"github.com/osa030/queuebox/internal/domain/track"
	"github.com/osa030/queuebox/internal/retry"
)

// SQLiteStore persists queue snapshots in a SQLite database.
// Implements player.SnapshotStore.
type SQLiteStore struct {
	db    *sql.DB
	retry retry.Policy
}

// Open opens (creating if needed) the database at path and brings its schema
// up to date. Use ":memory:" for an ephemeral store.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
		path += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{
		db: db,
		retry: retry.Policy{
			MaxRetries: 3,
			BaseDelay:  50 * time.Millisecond,
			MaxDelay:   time.Second,
			Retryable:  []retry.Kind{retry.KindTransient},
		},
	}

	applied, err := s.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if len(applied) > 0 {
		zlog.Info().Msgf("store: applied schema migration(s) %v", applied)
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// markBusy classifies SQLite lock contention as transient so writes retry.
func markBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return retry.Mark(err, retry.KindTransient)
	}
	return err
}

// SaveQueue replaces the persisted snapshot with s.
func (st *SQLiteStore) SaveQueue(ctx context.Context, snap queue.Snapshot) error {
	return retry.Run(ctx, st.retry, "store.SaveQueue", func(ctx context.Context) error {
		return markBusy(st.saveQueue(ctx, snap))
	})
}

func (st *SQLiteStore) saveQueue(ctx context.Context, snap queue.Snapshot) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items`); err != nil {
		return errors.Wrap(err, "failed to clear queue items")
	}
	for pos, rec := range snap.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO queue_items (position, video_id, title, channel, duration, added_at, playback_position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			pos, rec.ID, rec.Title, rec.Channel, rec.DurationSeconds, rec.AddedAt, rec.PositionSeconds)
		if err != nil {
			return errors.Wrapf(err, "failed to insert queue item %d", pos)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO queue_meta (id, current_index, shuffle_mode, repeat_mode, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_index = excluded.current_index,
			shuffle_mode = excluded.shuffle_mode,
			repeat_mode = excluded.repeat_mode,
			saved_at = excluded.saved_at`,
		snap.Cursor, snap.Shuffle, snap.Repeat, time.Now().Unix())
	if err != nil {
		return errors.Wrap(err, "failed to save queue meta")
	}

	return errors.Wrap(tx.Commit(), "failed to commit queue snapshot")
}

// LoadQueue reads the persisted snapshot. ok is false when nothing has been
// saved yet.
func (st *SQLiteStore) LoadQueue(ctx context.Context) (queue.Snapshot, bool, error) {
	var snap queue.Snapshot

	row := st.db.QueryRowContext(ctx, `
		SELECT current_index, shuffle_mode, repeat_mode FROM queue_meta WHERE id = 1`)
	if err := row.Scan(&snap.Cursor, &snap.Shuffle, &snap.Repeat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queue.Snapshot{}, false, nil
		}
		return queue.Snapshot{}, false, errors.Wrap(err, "failed to read queue meta")
	}

	rows, err := st.db.QueryContext(ctx, `
		SELECT video_id, title, channel, duration, added_at, playback_position
		FROM queue_items ORDER BY position`)
	if err != nil {
		return queue.Snapshot{}, false, errors.Wrap(err, "failed to read queue items")
	}
	defer rows.Close()

	for rows.Next() {
		var rec track.Record
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Channel, &rec.DurationSeconds, &rec.AddedAt, &rec.PositionSeconds); err != nil {
			return queue.Snapshot{}, false, errors.Wrap(err, "failed to scan queue item")
		}
		snap.Items = append(snap.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return queue.Snapshot{}, false, errors.Wrap(err, "failed to iterate queue items")
	}

	return snap, true, nil
}
