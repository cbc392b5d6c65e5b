package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS build_events (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id    TEXT    NOT NULL,
		kind        TEXT    NOT NULL,
		recorded_at INTEGER NOT NULL,
		body        BLOB    NOT NULL,
		meta        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS build_events_build ON build_events(build_id)`,
	`CREATE INDEX IF NOT EXISTS build_events_recorded ON build_events(recorded_at)`,
}

const selectEvents = `SELECT seq, build_id, kind, recorded_at, body, meta FROM build_events `

// SQLiteStore is the sqlite-backed Store. Timestamps are kept at millisecond
// precision.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the history database at path.
// ":memory:" gives a store that lives as long as the process.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeError("could not open history database", err).WithContext("path", path).Build()
	}
	// one connection: ":memory:" stays a single database and writes serialize
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, storeError("failed to prepare history schema", err).WithContext("path", path).Build()
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	_, err := db.Exec(`PRAGMA user_version = 1`)
	return err
}

// Append stores ev. A zero timestamp is recorded as now.
func (s *SQLiteStore) Append(ctx context.Context, ev Event) error {
	var meta []byte
	if md := ev.Metadata(); len(md) > 0 {
		var err error
		if meta, err = json.Marshal(md); err != nil {
			return storeError("failed to encode event metadata", err).Build()
		}
	}

	at := ev.Timestamp()
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_events (build_id, kind, recorded_at, body, meta) VALUES (?, ?, ?, ?, ?)`,
		ev.BuildID(), ev.Type(), at.UnixMilli(), ev.Payload(), meta)
	if err != nil {
		return storeError("failed to append build event", err).
			WithContext("build_id", ev.BuildID()).
			WithContext("kind", ev.Type()).
			Build()
	}
	return nil
}

func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	return s.query(ctx, `WHERE build_id = ? ORDER BY seq`, buildID)
}

func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx, `WHERE recorded_at BETWEEN ? AND ? ORDER BY seq`, start.UnixMilli(), end.UnixMilli())
}

// Prune deletes builds by their first event so a build is never left
// half-removed.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM build_events WHERE build_id IN (
			SELECT build_id FROM build_events GROUP BY build_id HAVING MIN(recorded_at) < ?)`,
		before.UnixMilli())
	if err != nil {
		return 0, storeError("failed to prune build history", err).Build()
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) query(ctx context.Context, where string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+where, args...)
	if err != nil {
		return nil, storeError("failed to query build history", err).Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			rec  Record
			at   int64
			meta []byte
		)
		if err := rows.Scan(&rec.Seq, &rec.Build, &rec.Kind, &at, &rec.Body, &meta); err != nil {
			return nil, storeError("failed to read build event", err).Build()
		}
		rec.At = time.UnixMilli(at)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Meta); err != nil {
				return nil, storeError("corrupt event metadata", err).WithContext("seq", rec.Seq).Build()
			}
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to query build history", err).Build()
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func storeError(msg string, cause error) *errors.ErrorBuilder {
	return errors.EventStoreError(msg).WithCause(cause)
}
