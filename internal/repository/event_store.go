package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"Horacle/internal/domain/models"
	domrepo "Horacle/internal/domain/repository"
)

const (
	runsTable   = "prediction_runs"
	eventsTable = "prediction_events"
	chunkSize   = 500
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name   string
	schema []string
	// timeArg converts a timestamp into the column's bound representation.
	timeArg func(time.Time) interface{}
	// transactional backends write a run and its events atomically.
	transactional bool
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// sqlEventStore implements EventStore over database/sql. Each run and each
// event row keeps its full JSON payload; the remaining columns exist for
// querying.
type sqlEventStore struct {
	db     *sql.DB
	d      dialect
	ownsDB bool
}

var _ domrepo.EventStore = (*sqlEventStore)(nil)

func (s *sqlEventStore) Init(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s init schema: %w", s.d.name, err)
		}
	}
	return nil
}

func (s *sqlEventStore) SaveRun(ctx context.Context, run *models.PredictionResult) error {
	if run == nil || run.RunID == "" {
		return fmt.Errorf("save run: run id required")
	}
	if !s.d.transactional {
		return s.write(ctx, s.db, run)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := s.write(ctx, tx, run); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *sqlEventStore) write(ctx context.Context, ex execer, run *models.PredictionResult) error {
	header := *run
	header.Events = nil
	payload, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	degr := make([]string, len(run.Degradations))
	for i, d := range run.Degradations {
		degr[i] = string(d)
	}
	q := fmt.Sprintf(`INSERT INTO %s (run_id, generated_at, window_start, window_end, min_probability, event_count, degradations, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, runsTable)
	if _, err := ex.ExecContext(ctx, q,
		run.RunID,
		s.d.timeArg(run.GeneratedAt),
		s.d.timeArg(run.Window.Start),
		s.d.timeArg(run.Window.End),
		run.MinProbability,
		len(run.Events),
		strings.Join(degr, ","),
		string(payload),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for start := 0; start < len(run.Events); start += chunkSize {
		end := min(start+chunkSize, len(run.Events))
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*13)
		for i, ev := range run.Events[start:end] {
			b, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("encode event %s: %w", ev.ID, err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				run.RunID,
				start+i,
				ev.ID,
				ev.EventType,
				ev.House,
				ev.Probability,
				ev.ParashariProbability,
				string(ev.Quality),
				string(ev.TimingPrecision),
				s.d.timeArg(ev.PeakDate),
				boolArg(ev.TripleLock),
				boolArg(ev.DoubleLock),
				string(b),
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (run_id, seq, id, event_type, house, probability, parashari_probability,
			quality, timing_precision, peak_date, triple_lock, double_lock, payload) VALUES %s`,
			eventsTable, strings.Join(values, ","))
		if _, err := ex.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
	}
	return nil
}

func (s *sqlEventStore) GetRun(ctx context.Context, runID string) (*models.PredictionResult, error) {
	var payload string
	q := fmt.Sprintf("SELECT payload FROM %s WHERE run_id = ? LIMIT 1", runsTable)
	if err := s.db.QueryRowContext(ctx, q, runID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	var run models.PredictionResult
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}

	q = fmt.Sprintf("SELECT payload FROM %s WHERE run_id = ? ORDER BY seq ASC", eventsTable)
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	run.Events = make([]models.EventRecord, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev models.EventRecord
		if err := json.Unmarshal([]byte(p), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		run.Events = append(run.Events, ev)
	}
	return &run, rows.Err()
}

func (s *sqlEventStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlEventStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil // Managed by pkg
}

func boolArg(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
