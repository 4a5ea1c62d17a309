package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInner struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type sampleRequest struct {
	Inner sampleInner `json:"inner"`
	Limit int         `json:"limit" default:"60" validate:"gte=0,lte=100"`
	Kind  string      `json:"kind" validate:"omitempty,oneof=a b"`
}

func bind(t *testing.T, body string, req interface{}) interface{} {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(r, httptest.NewRecorder())
	return ReadAndValidateRequest(c, req)
}

func TestReadAndValidateRequest_DefaultsAndJSONNames(t *testing.T) {
	var ok sampleRequest
	assert.Nil(t, bind(t, `{"inner":{"date":"2024-02-29"}}`, &ok))
	assert.Equal(t, 60, ok.Limit)

	var bad sampleRequest
	res := bind(t, `{"inner":{"date":"29/02/2024"},"limit":101,"kind":"c"}`, &bad)
	errs, isList := res.([]ValidationError)
	require.True(t, isList)
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_DATETIME", byField["inner.date"].Code)
	assert.Equal(t, "2006-01-02", byField["inner.date"].Params["layout"])
	assert.Equal(t, "limit must be less than or equal to 100", byField["limit"].Message)
	assert.Equal(t, []string{"a", "b"}, byField["kind"].Params["options"])
}

func TestReadAndValidateRequest_MalformedJSON(t *testing.T) {
	var req sampleRequest
	errs, ok := bind(t, `{"inner":`, &req).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

func TestFieldErrors(t *testing.T) {
	out := FieldErrors("ERR_INVALID_RANGE", []FieldError{{Field: "end_date", Message: "end before start"}})
	assert.Equal(t, []ValidationError{{Code: "ERR_INVALID_RANGE", Field: "end_date", Message: "end before start"}}, out)
}
