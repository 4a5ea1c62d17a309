package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Horacle/internal/domain/models"
)

const testRunID = "5d1c3f0e-8a7b-4c55-9d1e-2f6b7a8c9d01"

type fakePredictions struct {
	err    error
	events []models.EventRecord
	got    models.PredictionRequest
}

func (f *fakePredictions) result() *models.PredictionResult {
	return &models.PredictionResult{
		RunID:        testRunID,
		Events:       f.events,
		Degradations: []models.Degradation{models.DegradationNadi},
	}
}

func (f *fakePredictions) Predict(_ context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakePredictions) Get(_ context.Context, id string) (*models.PredictionResult, error) {
	if id != testRunID {
		return nil, models.ErrRunNotFound
	}
	return f.result(), nil
}

func (f *fakePredictions) Stream(ctx context.Context, req models.PredictionRequest, emit func(models.EventRecord) error) (*models.PredictionResult, error) {
	res, err := f.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, ev := range res.Events {
		if err := emit(ev); err != nil {
			return res, err
		}
	}
	return res, nil
}

type fakeCheck struct{ err error }

func (f fakeCheck) Health(context.Context) error { return f.err }

const validBody = `{
	"birth": {"date": "1990-01-01", "time": "06:30", "latitude": 28.61, "longitude": 77.21, "timezone": "+05:30"},
	"start_date": "2025-01-01",
	"end_date": "2025-06-30"
}`

func newTestEcho(svc PredictionAPI, opts ...HandlerOption) *echo.Echo {
	e := echo.New()
	NewPredictionsEchoHandler(nil, svc, opts...).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var env struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, rec.Code, env.Status)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestPredict_OK(t *testing.T) {
	svc := &fakePredictions{events: []models.EventRecord{{ID: "a", EventType: "marriage", House: 7}}}
	e := newTestEcho(svc)

	rec := do(e, http.MethodPost, "/api/predictions", validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testRunID, rec.Header().Get("X-Run-ID"))

	var res models.PredictionResult
	decodeData(t, rec, &res)
	assert.Equal(t, testRunID, res.RunID)
	require.Len(t, res.Events, 1)
	assert.Nil(t, svc.got.MinProbability)
	assert.Equal(t, "2025-06-30", svc.got.EndDate)
}

func TestPredict_ExplicitZeroFloorKept(t *testing.T) {
	svc := &fakePredictions{}
	e := newTestEcho(svc)

	body := strings.Replace(validBody, `"end_date": "2025-06-30"`, `"end_date": "2025-06-30", "min_probability": 0`, 1)
	rec := do(e, http.MethodPost, "/api/predictions", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got.MinProbability)
	assert.Equal(t, 0, *svc.got.MinProbability)

	body = strings.Replace(validBody, `"end_date": "2025-06-30"`, `"end_date": "2025-06-30", "min_probability": 101`, 1)
	rec = do(e, http.MethodPost, "/api/predictions", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_BindingValidation(t *testing.T) {
	e := newTestEcho(&fakePredictions{})

	rec := do(e, http.MethodPost, "/api/predictions", `{"start_date":"2025-01-01","end_date":"2025-02-01","birth":{"date":"01/01/1990","time":"06:30","timezone":"UTC"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"birth.date"`)

	rec = do(e, http.MethodPost, "/api/predictions", `{"birth":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"range", models.NewValidationError(models.ErrInvalidRange, models.FieldError{Field: "end_date", Message: "end before start"}), http.StatusBadRequest, "ERR_INVALID_RANGE"},
		{"birth", models.NewValidationError(models.ErrInvalidBirth, models.FieldError{Field: "birth.timezone", Message: "unknown zone"}), http.StatusBadRequest, "ERR_INVALID_BIRTH"},
		{"ephemeris", models.ErrEphemerisUnavailable, http.StatusServiceUnavailable, "ERR_UNAVAILABLE"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "ERR_TIMEOUT"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho(&fakePredictions{err: tc.err})
			rec := do(e, http.MethodPost, "/api/predictions", validBody)
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestGetRun(t *testing.T) {
	e := newTestEcho(&fakePredictions{})

	rec := do(e, http.MethodGet, "/api/predictions/"+testRunID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/predictions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestHouses(t *testing.T) {
	e := newTestEcho(&fakePredictions{})

	rec := do(e, http.MethodGet, "/api/rules/houses?age=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res HousesResponse
	decodeData(t, rec, &res)
	assert.Len(t, res.Houses, 12)
	assert.Len(t, res.Stages, 4)
	require.NotNil(t, res.Stage)
	assert.Equal(t, "young_professional", res.Stage.Name)

	rec = do(e, http.MethodGet, "/api/rules/houses?age=abc", "")
	res = HousesResponse{}
	decodeData(t, rec, &res)
	assert.Nil(t, res.Stage)
}

func TestHealth(t *testing.T) {
	e := newTestEcho(&fakePredictions{}, WithHealthCheck("ephemeris", fakeCheck{}), WithHealthCheck("store", nil))
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ephemeris":"ok"`)
	assert.NotContains(t, rec.Body.String(), "store")

	e = newTestEcho(&fakePredictions{}, WithHealthCheck("ephemeris", fakeCheck{err: errors.New("down")}))
	rec = do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ephemeris":"down"`)
}

func dialStream(t *testing.T, svc PredictionAPI) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestEcho(svc, WithStreamPing(0)))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/predictions/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStream_EventsThenSummary(t *testing.T) {
	svc := &fakePredictions{events: []models.EventRecord{{ID: "a"}, {ID: "b"}}}
	conn := dialStream(t, svc)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(validBody)))

	var frames []StreamFrame
	for {
		var f StreamFrame
		if err := conn.ReadJSON(&f); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected %v", err)
			break
		}
		frames = append(frames, f)
	}

	require.Len(t, frames, 3)
	assert.Equal(t, frameEvent, frames[0].Type)
	assert.Equal(t, "a", frames[0].Event.ID)
	assert.Equal(t, "b", frames[1].Event.ID)
	assert.Equal(t, frameSummary, frames[2].Type)
	assert.Equal(t, testRunID, frames[2].Summary.RunID)
	assert.Equal(t, 2, frames[2].Summary.Events)
	assert.True(t, frames[2].Summary.Done)
}

func TestStream_InvalidRequest(t *testing.T) {
	conn := dialStream(t, &fakePredictions{})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"start_date":"2025-01-01"}`)))

	var f StreamFrame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, frameError, f.Type)
	assert.NotEmpty(t, f.Fields)
}

func TestStream_ServiceError(t *testing.T) {
	conn := dialStream(t, &fakePredictions{err: models.ErrEphemerisUnavailable})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(validBody)))

	var f StreamFrame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, frameError, f.Type)
	require.Len(t, f.Errors, 1)
	assert.Equal(t, "ERR_UNAVAILABLE", f.Errors[0].Code)
}
