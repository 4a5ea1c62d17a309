package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Horacle/internal/domain/models"
	domrepo "Horacle/internal/domain/repository"
	pkgcache "Horacle/pkg/cache"
	"Horacle/pkg/logger"
	pkgmetrics "Horacle/pkg/metrics"
	xutil "Horacle/pkg/util"
)

const dateLayout = "2006-01-02"

// PredictionService runs predictions end to end: validation, cache, sweep,
// persistence and publishing. Everything but the predictor is optional.
type PredictionService struct {
	predictor *Predictor
	cache     pkgcache.Service
	cacheTTL  time.Duration
	store     domrepo.EventStore
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger
	timeout   time.Duration
	minProb   int
	now       func() time.Time
}

type ServiceOption func(*PredictionService)

// WithResultCache caches results by request hash and by run id.
func WithResultCache(c pkgcache.Service, ttl time.Duration) ServiceOption {
	return func(s *PredictionService) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithEventStore(st domrepo.EventStore) ServiceOption {
	return func(s *PredictionService) { s.store = st }
}

func WithEventPublisher(p domrepo.EventPublisher) ServiceOption {
	return func(s *PredictionService) { s.publisher = p }
}

func WithServiceMetrics(m domrepo.Metrics) ServiceOption {
	return func(s *PredictionService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithServiceLogger(l *logger.Logger) ServiceOption {
	return func(s *PredictionService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRunTimeout bounds one prediction run.
func WithRunTimeout(d time.Duration) ServiceOption {
	return func(s *PredictionService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithDefaultMinProbability sets the floor used when a request carries none.
func WithDefaultMinProbability(n int) ServiceOption {
	return func(s *PredictionService) {
		if n >= 0 && n <= 100 {
			s.minProb = n
		}
	}
}

func NewPredictionService(p *Predictor, opts ...ServiceOption) *PredictionService {
	s := &PredictionService{
		predictor: p,
		minProb:   DefaultMinProbability,
		cacheTTL:  time.Hour,
		metrics:   pkgmetrics.Nop{},
		log:       logger.Nop(),
		timeout:   2 * time.Minute,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(logger.String("component", "prediction_service"))
	return s
}

// ParseRequest converts a transport request into sweep parameters. A request
// without a floor gets defaultMin.
func ParseRequest(req models.PredictionRequest, defaultMin int) (PredictParams, error) {
	start, ok := xutil.ParseDate(req.StartDate)
	if !ok {
		return PredictParams{}, models.NewValidationError(models.ErrInvalidRange, models.FieldError{Field: "start_date", Message: "expected YYYY-MM-DD"})
	}
	end, ok := xutil.ParseDate(req.EndDate)
	if !ok {
		return PredictParams{}, models.NewValidationError(models.ErrInvalidRange, models.FieldError{Field: "end_date", Message: "expected YYYY-MM-DD"})
	}
	minProb := defaultMin
	if req.MinProbability != nil {
		minProb = *req.MinProbability
	}
	return PredictParams{
		Birth:          req.Birth,
		Start:          start,
		End:            end,
		MinProbability: minProb,
		RequestID:      req.RequestID,
	}, nil
}

// RequestKey hashes the inputs that determine a result.
func RequestKey(p PredictParams) string {
	b, _ := json.Marshal(struct {
		Birth models.Birth `json:"birth"`
		Start string       `json:"start"`
		End   string       `json:"end"`
		Min   int          `json:"min"`
	}{p.Birth, p.Start.Format(dateLayout), p.End.Format(dateLayout), p.MinProbability})
	return pkgcache.HashKey(string(b))
}

// Predict validates req, serves it from cache when possible, and otherwise
// runs the sweep and persists the result.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	start := s.now()
	defer func() { s.metrics.RecordLatency("predict", time.Since(start).Seconds()) }()

	params, err := ParseRequest(req, s.minProb)
	if err == nil {
		err = s.predictor.Validate(params)
	}
	if err != nil {
		s.metrics.RecordPrediction("invalid")
		return nil, err
	}

	reqKey := pkgcache.GenerateKey("req", RequestKey(params))
	if s.cache != nil {
		cached, ok, cerr := pkgcache.Fetch[models.PredictionResult](ctx, s.cache, reqKey)
		if cerr != nil {
			s.log.Warn("result cache read failed", logger.Error(cerr))
		}
		if ok {
			s.metrics.RecordPrediction("cached")
			return &cached, nil
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pred, err := s.predictor.Predict(runCtx, params)
	if err != nil {
		outcome := "error"
		if errors.Is(err, models.ErrEphemerisUnavailable) {
			outcome = "ephemeris_unavailable"
		}
		s.metrics.RecordPrediction(outcome)
		s.metrics.RecordError("predict")
		return nil, err
	}

	res := &models.PredictionResult{
		RunID:          uuid.NewString(),
		Birth:          params.Birth,
		Window:         models.Window{Start: params.Start, End: params.End},
		MinProbability: params.MinProbability,
		Events:         pred.Events,
		Degradations:   pred.Degradations,
		GeneratedAt:    s.now().UTC(),
	}
	if res.Events == nil {
		res.Events = []models.EventRecord{}
	}
	if res.Degradations == nil {
		res.Degradations = []models.Degradation{}
	}

	s.metrics.RecordPrediction("ok")
	s.metrics.RecordEvents(len(res.Events))
	for _, d := range res.Degradations {
		s.metrics.RecordDegradation(string(d))
	}

	s.persist(ctx, res)
	if s.cache != nil {
		if err := s.cache.Set(ctx, reqKey, res, s.cacheTTL); err != nil {
			s.log.Warn("result cache write failed", logger.Error(err))
		}
		if err := s.cache.Set(ctx, runKey(res.RunID), res, s.cacheTTL); err != nil {
			s.log.Warn("result cache write failed", logger.Error(err))
		}
	}
	s.log.Info("prediction finished",
		logger.String("run_id", res.RunID),
		logger.String("request_id", params.RequestID),
		logger.Int("events", len(res.Events)),
		logger.Strings("degradations", degradationStrings(res.Degradations)),
	)
	return res, nil
}

// persist stores and publishes a run. Failures are logged, never returned:
// the caller already has the result.
func (s *PredictionService) persist(ctx context.Context, res *models.PredictionResult) {
	if s.store != nil {
		if err := s.store.SaveRun(ctx, res); err != nil {
			s.metrics.RecordError("store")
			s.log.Error("save run failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
	if s.publisher != nil && len(res.Events) > 0 {
		if err := s.publisher.PublishEvents(ctx, res.RunID, res.Events); err != nil {
			s.metrics.RecordError("publish")
			s.log.Error("publish events failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
}

// Get returns a stored run by id.
func (s *PredictionService) Get(ctx context.Context, runID string) (*models.PredictionResult, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, models.ErrRunNotFound
	}
	if s.cache != nil {
		if cached, ok, _ := pkgcache.Fetch[models.PredictionResult](ctx, s.cache, runKey(runID)); ok {
			return &cached, nil
		}
	}
	if s.store == nil {
		return nil, models.ErrRunNotFound
	}
	res, err := s.store.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return res, nil
}

// Stream runs a prediction and hands each event to emit in order. It stops at
// the first emit error.
func (s *PredictionService) Stream(ctx context.Context, req models.PredictionRequest, emit func(models.EventRecord) error) (*models.PredictionResult, error) {
	res, err := s.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, ev := range res.Events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := emit(ev); err != nil {
			return res, fmt.Errorf("emit event %s: %w", ev.ID, err)
		}
	}
	return res, nil
}

func runKey(runID string) string { return pkgcache.GenerateKey("run", runID) }

func degradationStrings(ds []models.Degradation) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}
