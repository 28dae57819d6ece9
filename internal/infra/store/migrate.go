package store

import (
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/queuebox/internal/domain/track"
)

// migration is one schema version step, applied inside a transaction.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

func execAll(tx *sql.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []migration{
	{
		version:     1,
		description: "queue snapshot as a single JSON payload",
		apply: func(tx *sql.Tx) error {
			return execAll(tx, `
				CREATE TABLE queue_snapshot (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					payload TEXT NOT NULL
				)`)
		},
	},
	{
		version:     2,
		description: "relational queue layout, carrying over legacy payloads",
		apply: func(tx *sql.Tx) error {
			if err := execAll(tx, `
				CREATE TABLE queue_items (
					position INTEGER PRIMARY KEY,
					video_id TEXT NOT NULL,
					title TEXT NOT NULL,
					channel TEXT NOT NULL,
					duration INTEGER NOT NULL DEFAULT 0,
					added_at REAL NOT NULL,
					playback_position INTEGER NOT NULL DEFAULT 0
				)`, `
				CREATE TABLE queue_meta (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					current_index INTEGER NOT NULL DEFAULT -1,
					shuffle_mode BOOLEAN NOT NULL DEFAULT FALSE,
					repeat_mode TEXT NOT NULL DEFAULT 'none',
					saved_at INTEGER NOT NULL DEFAULT 0
				)`); err != nil {
				return err
			}
			if err := carryOverLegacyPayload(tx); err != nil {
				return err
			}
			return execAll(tx, `DROP TABLE queue_snapshot`)
		},
	},
}

// latestSchemaVersion is what a fully migrated database reports.
var latestSchemaVersion = migrations[len(migrations)-1].version

// legacyPayload is the v1 JSON snapshot shape. Item records arrive as loose
// maps and are decoded field-by-field.
type legacyPayload struct {
	Tracks       []map[string]any `json:"tracks"`
	CurrentIndex int              `json:"current_index"`
	ShuffleMode  bool             `json:"shuffle_mode"`
	RepeatMode   string           `json:"repeat_mode"`
}

func carryOverLegacyPayload(tx *sql.Tx) error {
	var raw string
	err := tx.QueryRow(`SELECT payload FROM queue_snapshot WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read legacy snapshot")
	}

	var legacy legacyPayload
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return errors.Wrap(err, "failed to parse legacy snapshot")
	}

	for pos, m := range legacy.Tracks {
		var rec track.Record
		if err := mapstructure.WeakDecode(m, &rec); err != nil {
			return errors.Wrapf(err, "failed to decode legacy item %d", pos)
		}
		_, err := tx.Exec(`
			INSERT INTO queue_items (position, video_id, title, channel, duration, added_at, playback_position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			pos, rec.ID, rec.Title, rec.Channel, rec.DurationSeconds, rec.AddedAt, rec.PositionSeconds)
		if err != nil {
			return errors.Wrapf(err, "failed to carry over legacy item %d", pos)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO queue_meta (id, current_index, shuffle_mode, repeat_mode, saved_at)
		VALUES (1, ?, ?, ?, 0)`,
		legacy.CurrentIndex, legacy.ShuffleMode, legacy.RepeatMode)
	return errors.Wrap(err, "failed to carry over legacy meta")
}

// SchemaVersion returns the highest applied migration version, 0 for a fresh
// database.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return 0, errors.Wrap(err, "failed to ensure migrations table")
	}
	var v sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, errors.Wrap(err, "failed to read schema version")
	}
	return int(v.Int64), nil
}

// Pending returns the versions that have not been applied yet.
func (s *SQLiteStore) Pending() ([]int, error) {
	current, err := s.SchemaVersion()
	if err != nil {
		return nil, err
	}
	var pending []int
	for _, m := range migrations {
		if m.version > current {
			pending = append(pending, m.version)
		}
	}
	return pending, nil
}

// Migrate applies all pending migrations in order, each in its own
// transaction, and returns the applied versions. Idempotent.
func (s *SQLiteStore) Migrate() ([]int, error) {
	current, err := s.SchemaVersion()
	if err != nil {
		return nil, err
	}

	var applied []int
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return applied, errors.Wrapf(err, "migration %d: failed to begin", m.version)
		}
		if err := m.apply(tx); err != nil {
			_ = tx.Rollback()
			return applied, errors.Wrapf(err, "migration %d (%s) failed", m.version, m.description)
		}
		if _, err := tx.Exec(`
			INSERT INTO schema_migrations (version, description, applied_at)
			VALUES (?, ?, strftime('%s', 'now'))`, m.version, m.description); err != nil {
			_ = tx.Rollback()
			return applied, errors.Wrapf(err, "migration %d: failed to record", m.version)
		}
		if err := tx.Commit(); err != nil {
			return applied, errors.Wrapf(err, "migration %d: failed to commit", m.version)
		}
		applied = append(applied, m.version)
	}
	return applied, nil
}
