package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"Horacle/internal/domain/models"
	"Horacle/internal/rules"
	xhttp "Horacle/pkg/http"
	xlogger "Horacle/pkg/logger"
	xutil "Horacle/pkg/util"
)

// PredictionAPI is the use case surface the handlers need.
type PredictionAPI interface {
	Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error)
	Get(ctx context.Context, runID string) (*models.PredictionResult, error)
	Stream(ctx context.Context, req models.PredictionRequest, emit func(models.EventRecord) error) (*models.PredictionResult, error)
}

// HealthChecker is a dependency probed by /healthz.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// PredictionsEchoHandler serves the prediction API.
type PredictionsEchoHandler struct {
	logger *xlogger.Logger
	svc    PredictionAPI
	checks map[string]HealthChecker
	// streamPing is the websocket keepalive interval.
	streamPing time.Duration
}

type HandlerOption func(*PredictionsEchoHandler)

// WithHealthCheck adds a named dependency to /healthz. Nil checkers are ignored.
func WithHealthCheck(name string, hc HealthChecker) HandlerOption {
	return func(h *PredictionsEchoHandler) {
		if hc != nil {
			h.checks[name] = hc
		}
	}
}

func WithStreamPing(d time.Duration) HandlerOption {
	return func(h *PredictionsEchoHandler) { h.streamPing = d }
}

func NewPredictionsEchoHandler(logger *xlogger.Logger, svc PredictionAPI, opts ...HandlerOption) *PredictionsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &PredictionsEchoHandler{
		logger:     logger.With(xlogger.String("component", "api")),
		svc:        svc,
		checks:     map[string]HealthChecker{},
		streamPing: 20 * time.Second,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *PredictionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/predictions", h.Predict)
	g.GET("/predictions/stream", h.Stream)
	g.GET("/predictions/:run_id", h.GetRun)
	g.GET("/rules/houses", h.Houses)
}

func (h *PredictionsEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.RequestID == "" {
		req.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	}

	res, err := h.svc.Predict(c.Request().Context(), *req)
	if err != nil {
		return h.errorResponse(c, "predict", err)
	}
	c.Response().Header().Set("X-Run-ID", res.RunID)
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionsEchoHandler) GetRun(c echo.Context) error {
	res, err := h.svc.Get(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return h.errorResponse(c, "get run", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, res)
}

// HousesResponse is the rules introspection payload.
type HousesResponse struct {
	Houses []rules.HouseSignification `json:"houses"`
	Stages []rules.Stage              `json:"stages"`
	Stage  *rules.Stage               `json:"stage,omitempty"`
}

// Houses returns the signification table and life stages. With ?age=N the
// stage for that age is included.
func (h *PredictionsEchoHandler) Houses(c echo.Context) error {
	res := HousesResponse{
		Houses: rules.SignificationTable(),
		Stages: rules.Stages(),
	}
	if age := xutil.ParseIntDefault(c.QueryParam("age"), -1); age >= 0 {
		st := rules.StageFor(age)
		res.Stage = &st
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, res)
}

// Health reports each registered dependency. Any failure yields 503.
func (h *PredictionsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, hc := range h.checks {
		if err := hc.Health(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("dependency", name), xlogger.Error(err))
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	return xhttp.DataResponse(c, status, deps)
}

func (h *PredictionsEchoHandler) errorResponse(c echo.Context, op string, err error) error {
	return xhttp.AppErrorResponse(c, toAppError(err, func(e error) {
		h.logger.Error(op+" failed", xlogger.Error(e))
	}))
}

// toAppError maps domain errors onto HTTP errors. Unexpected errors are
// passed to logUnexpected first.
func toAppError(err error, logUnexpected func(error)) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		code := "ERR_VALIDATION"
		switch {
		case errors.Is(err, models.ErrInvalidBirth):
			code = "ERR_INVALID_BIRTH"
		case errors.Is(err, models.ErrInvalidRange):
			code = "ERR_INVALID_RANGE"
		}
		ae := xhttp.BadRequestError(verr.Error())
		ae.Code = code
		if len(verr.Fields) > 0 {
			ae.Field = verr.Fields[0].Field
		}
		return ae.WithError(err)
	case errors.Is(err, models.ErrRunNotFound):
		return xhttp.NotFoundError("prediction run not found").WithError(err)
	case errors.Is(err, models.ErrEphemerisUnavailable):
		return xhttp.ServiceUnavailableError("ephemeris service unavailable").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.GatewayTimeoutError("prediction timed out").WithError(err)
	}
	if logUnexpected != nil {
		logUnexpected(err)
	}
	return xhttp.InternalError("Something went wrong").WithError(err)
}
