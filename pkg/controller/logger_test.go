package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"electrumd/pkg/controller"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWithLogger_GeneratesRequestID(t *testing.T) {
	var seen string
	h := controller.WithLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(controller.RequestIDKey).(string)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	_, err := uuid.Parse(seen)
	require.NoError(t, err, "a request without X-Request-Id gets a generated UUID")
}

func TestWithLogger_PropagatesProvidedRequestID(t *testing.T) {
	var seen string
	h := controller.WithLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(controller.RequestIDKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "req-42", seen)
}
