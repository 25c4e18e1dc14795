package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultspark/internal/platform/metrics"
	"vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/requestcontext"
)

type fixedSession models.Snapshot

func (f fixedSession) State() models.Snapshot { return models.Snapshot(f) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession(t *testing.T) {
	var seen id.UserID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects without session", func(t *testing.T) {
		h := RequireSession(fixedSession{Status: models.StatusUnauthenticated}, discardLogger())(next)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"unauthorized"`)
	})

	t.Run("passes identity through", func(t *testing.T) {
		userID := id.NewUserID()
		snap := fixedSession{
			Status:  models.StatusAuthenticated,
			Session: &models.Session{AccessToken: "t", Identity: models.Identity{UserID: userID, Email: "a@b.co"}},
		}
		h := RequireSession(snap, discardLogger())(next)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, userID, seen)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc-123", seen)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "kaboom")
}

func TestLatencyUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	labels := map[string]string{}
	for _, mf := range families {
		if mf.GetName() != "vaultspark_http_request_duration_seconds" {
			continue
		}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
	}
	assert.Equal(t, map[string]string{"route": "/items/{id}", "method": "GET", "status": "418"}, labels)
}
