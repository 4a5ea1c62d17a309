package repository

import (
	"time"

	domrepo "Horacle/internal/domain/repository"
	pkgch "Horacle/pkg/clickhouse"
)

var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS prediction_runs (
		run_id          String,
		generated_at    DateTime64(3, 'UTC'),
		window_start    DateTime64(3, 'UTC'),
		window_end      DateTime64(3, 'UTC'),
		min_probability UInt8,
		event_count     UInt32,
		degradations    String,
		payload         String
	) ENGINE = ReplacingMergeTree
	ORDER BY run_id`,
	`CREATE TABLE IF NOT EXISTS prediction_events (
		run_id                String,
		seq                   UInt32,
		id                    String,
		event_type            LowCardinality(String),
		house                 UInt8,
		probability           UInt8,
		parashari_probability UInt8,
		quality               LowCardinality(String),
		timing_precision      LowCardinality(String),
		peak_date             DateTime64(3, 'UTC'),
		triple_lock           UInt8,
		double_lock           UInt8,
		payload               String
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(peak_date)
	ORDER BY (run_id, seq)`,
}

// NewClickHouseEventStore stores runs in ClickHouse for analytics. The
// connection pool stays owned by ch.
func NewClickHouseEventStore(ch *pkgch.Client) domrepo.EventStore {
	return &sqlEventStore{
		db: ch.DB(),
		d: dialect{
			name:    "clickhouse",
			schema:  clickhouseSchema,
			timeArg: func(t time.Time) interface{} { return t.UTC() },
		},
	}
}
