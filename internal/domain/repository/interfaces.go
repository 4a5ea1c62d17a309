package repository

import (
	"context"

	"Horacle/internal/domain/models"
)

// EventStore persists prediction runs and their event records.
type EventStore interface {
	Init(ctx context.Context) error // ensure tables
	SaveRun(ctx context.Context, run *models.PredictionResult) error
	GetRun(ctx context.Context, runID string) (*models.PredictionResult, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher fans emitted event records out to downstream consumers.
type EventPublisher interface {
	PublishEvents(ctx context.Context, runID string, events []models.EventRecord) error
	Close() error
}

type Metrics interface {
	RecordPrediction(outcome string)
	RecordEvents(n int)
	RecordDegradation(kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
