package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	domrepo "Horacle/internal/domain/repository"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS prediction_runs (
		run_id          TEXT PRIMARY KEY,
		generated_at    INTEGER NOT NULL,
		window_start    INTEGER NOT NULL,
		window_end      INTEGER NOT NULL,
		min_probability INTEGER NOT NULL,
		event_count     INTEGER NOT NULL,
		degradations    TEXT NOT NULL DEFAULT '',
		payload         TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prediction_events (
		run_id                TEXT NOT NULL REFERENCES prediction_runs(run_id) ON DELETE CASCADE,
		seq                   INTEGER NOT NULL,
		id                    TEXT NOT NULL,
		event_type            TEXT NOT NULL,
		house                 INTEGER NOT NULL,
		probability           INTEGER NOT NULL,
		parashari_probability INTEGER NOT NULL,
		quality               TEXT NOT NULL,
		timing_precision      TEXT NOT NULL,
		peak_date             INTEGER NOT NULL,
		triple_lock           INTEGER NOT NULL,
		double_lock           INTEGER NOT NULL,
		payload               TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_type_peak ON prediction_events(event_type, peak_date)`,
}

// NewSQLiteEventStore opens or creates the database at path. An empty path
// defaults to $TMPDIR/horacle/events.db.
func NewSQLiteEventStore(path string) (domrepo.EventStore, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "horacle", "events.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	for _, pragma := range []string{`PRAGMA journal_mode=WAL`, `PRAGMA foreign_keys=ON`} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &sqlEventStore{
		db:     db,
		ownsDB: true,
		d: dialect{
			name:          "sqlite",
			schema:        sqliteSchema,
			timeArg:       func(t time.Time) interface{} { return t.UnixMilli() },
			transactional: true,
		},
	}, nil
}
