package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lightcycle/internal/arena"
	"lightcycle/internal/config"
)

func TestRouterHealthz(t *testing.T) {
	engine := arena.NewEngine(config.DefaultArena(), config.DefaultTiming())
	router := NewRouter(engine, config.DefaultTiming())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", rec.Code)
	}
}

func TestRouterLeaderboard(t *testing.T) {
	engine := arena.NewEngine(config.DefaultArena(), config.DefaultTiming())
	router := NewRouter(engine, config.DefaultTiming())

	req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /leaderboard status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
