package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthz(t *testing.T) {
	tests := []struct {
		name         string
		db           Pinger
		wantStatus   int
		wantDatabase string
	}{
		{"no database", nil, http.StatusOK, "disabled"},
		{"database ok", fakePinger{}, http.StatusOK, "ok"},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, Services{DB: tt.db})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["database"] != tt.wantDatabase {
				t.Errorf("database = %v, want %q", body["database"], tt.wantDatabase)
			}
			if _, ok := body["storage_free_bytes"].(float64); !ok {
				t.Errorf("storage_free_bytes = %v, want a number", body["storage_free_bytes"])
			}
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	h := newTestHandler(t, Services{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, Services{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/evaluate_answer", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestUnknownMethod(t *testing.T) {
	h := newTestHandler(t, Services{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/start_interview", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSentryRecovery(t *testing.T) {
	h := withSentryRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/start_interview", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestUpstreamContext(t *testing.T) {
	r := &Router{cfg: RouterConfig{UpstreamTimeout: time.Minute}, logger: zerolog.Nop()}
	ctx, cancel := r.upstreamContext(httptest.NewRequest(http.MethodPost, "/", nil))
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("expected a deadline when UpstreamTimeout is set")
	}

	r.cfg.UpstreamTimeout = 0
	ctx2, cancel2 := r.upstreamContext(httptest.NewRequest(http.MethodPost, "/", nil))
	defer cancel2()
	if _, ok := ctx2.Deadline(); ok {
		t.Error("expected no deadline when UpstreamTimeout is zero")
	}
}
