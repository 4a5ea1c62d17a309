package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDo_JSONRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "7", r.URL.Query().Get("step"))
		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]int{"house": in["house"] + 1})
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("test-agent"))
	var out map[string]int
	err := c.Do(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Query:  url.Values{"step": {"7"}},
		Body:   map[string]int{"house": 9},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 10, out["house"])
}

func TestClientDo_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		http.Error(w, "no chart", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewClient().Do(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Contains(t, se.Body, "no chart")
	assert.False(t, se.Temporary())
}

func TestStatusError_Temporary(t *testing.T) {
	for code, want := range map[int]bool{
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusTooManyRequests:     true,
		http.StatusRequestTimeout:      true,
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
	} {
		assert.Equal(t, want, (&StatusError{Code: code}).Temporary(), code)
	}
}
