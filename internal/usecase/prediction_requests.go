package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Horacle/internal/domain/models"
	domrepo "Horacle/internal/domain/repository"
	pkgcache "Horacle/pkg/cache"
	pkgkafka "Horacle/pkg/kafka"
	"Horacle/pkg/logger"
	pkgmetrics "Horacle/pkg/metrics"
	"Horacle/pkg/queue"
)

// RequestJobType is the Redis queue message type for prediction requests.
const RequestJobType = "prediction.request"

// PredictionRequestHandler consumes prediction requests from Kafka or the
// Redis queue and runs them through the prediction service. Results leave
// through the service's store and publisher.
type PredictionRequestHandler struct {
	topic   string
	svc     *PredictionService
	dedupe  pkgcache.Service
	window  time.Duration
	metrics domrepo.Metrics
	log     *logger.Logger
}

type RequestHandlerOption func(*PredictionRequestHandler)

// WithDedupe drops requests whose request_id was already seen within window.
func WithDedupe(c pkgcache.Service, window time.Duration) RequestHandlerOption {
	return func(h *PredictionRequestHandler) {
		h.dedupe = c
		if window > 0 {
			h.window = window
		}
	}
}

func WithHandlerMetrics(m domrepo.Metrics) RequestHandlerOption {
	return func(h *PredictionRequestHandler) {
		if m != nil {
			h.metrics = m
		}
	}
}

func WithHandlerLogger(l *logger.Logger) RequestHandlerOption {
	return func(h *PredictionRequestHandler) {
		if l != nil {
			h.log = l
		}
	}
}

func NewPredictionRequestHandler(topic string, svc *PredictionService, opts ...RequestHandlerOption) *PredictionRequestHandler {
	h := &PredictionRequestHandler{
		topic:   topic,
		svc:     svc,
		window:  24 * time.Hour,
		metrics: pkgmetrics.Nop{},
		log:     logger.Nop(),
	}
	for _, o := range opts {
		o(h)
	}
	h.log = h.log.With(logger.String("component", "prediction_requests"))
	return h
}

func (h *PredictionRequestHandler) Topic() string { return h.topic }

func (h *PredictionRequestHandler) Type() string { return RequestJobType }

// Handle decodes one request. Undecodable or invalid requests are permanent
// failures; an unavailable ephemeris is retried.
func (h *PredictionRequestHandler) Handle(ctx context.Context, b []byte) error {
	var req models.PredictionRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode request: %w", err))
	}
	if req.RequestID == "" {
		req.RequestID = pkgkafka.TraceIDFromContext(ctx)
	}

	if h.dedupe != nil && req.RequestID != "" {
		key := pkgcache.GenerateKey("request", req.RequestID)
		fresh, err := h.dedupe.TryLock(ctx, key, h.window)
		if err != nil {
			return fmt.Errorf("dedupe %s: %w", req.RequestID, err)
		}
		if !fresh {
			h.log.Info("duplicate request dropped", logger.String("request_id", req.RequestID))
			return nil
		}
	}

	res, err := h.svc.Predict(ctx, req)
	if err != nil {
		if models.IsValidation(err) {
			return pkgkafka.Permanent(err)
		}
		h.releaseDedupe(ctx, req.RequestID)
		if errors.Is(err, models.ErrEphemerisUnavailable) {
			return err
		}
		return fmt.Errorf("predict %s: %w", req.RequestID, err)
	}
	h.log.Info("request processed",
		logger.String("request_id", req.RequestID),
		logger.String("run_id", res.RunID),
		logger.Int("events", len(res.Events)),
	)
	return nil
}

// releaseDedupe lets a retried delivery of a failed request run again.
func (h *PredictionRequestHandler) releaseDedupe(ctx context.Context, requestID string) {
	if h.dedupe == nil || requestID == "" {
		return
	}
	if err := h.dedupe.Unlock(ctx, pkgcache.GenerateKey("request", requestID)); err != nil {
		h.log.Warn("dedupe release failed", logger.String("request_id", requestID), logger.Error(err))
	}
}

var (
	_ pkgkafka.MessageHandler = (*PredictionRequestHandler)(nil)
	_ queue.Job               = (*PredictionRequestHandler)(nil)
)
