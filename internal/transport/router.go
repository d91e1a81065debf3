package transport

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lightcycle/internal/arena"
	"lightcycle/internal/config"
	"lightcycle/internal/observability"
	"lightcycle/internal/render"
)

// NewRouter builds the public HTTP router: the WebSocket endpoint, a health
// check, the rank leaderboard's read-only query surface, and a debug PNG
// snapshot. Constructing it opens no listener, so it's safe to drive with
// httptest in tests; it does start the rate limiter's cleanup goroutine.
func NewRouter(engine *arena.Engine, timing config.TimingConfig) *chi.Mux {
	hub := NewHub(engine, timing)
	rateLimiter := NewIPRateLimiter(DefaultRateLimitConfig)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(rateLimiter.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   append([]string{"http://localhost:*"}, AllowedOrigins...),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ws", hub.ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/leaderboard", leaderboardHandler(engine))
	r.Get("/debug/snapshot.png", snapshotHandler(engine))

	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		observability.RecordRequest(r.Method, pattern, ww.Status(), time.Since(start))
	})
}

// leaderboardHandler serves the top N cumulative-score entries as JSON. N is
// read from the "n" query param, defaulting to 10 and capped at 100.
func leaderboardHandler(engine *arena.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 10
		if raw := r.URL.Query().Get("n"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				n = parsed
			}
		}
		if n > 100 {
			n = 100
		}

		entries := engine.Leaderboard().GetTop(n)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

// snapshotHandler renders the current arena state to a PNG for spectating
// without a client. Not part of the authoritative wire protocol.
func snapshotHandler(engine *arena.Engine) http.HandlerFunc {
	cfg := render.DefaultConfig()
	return func(w http.ResponseWriter, r *http.Request) {
		aspectRatio, _, players := engine.Snapshot()

		views := make([]render.PlayerView, len(players))
		for i, p := range players {
			views[i] = render.PlayerView{
				Name:     p.Name,
				Color:    p.Color,
				Segments: p.Segments,
				Dead:     p.Dead,
			}
		}

		tmp, err := os.CreateTemp("", "snapshot-*.png")
		if err != nil {
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
		tmpPath := tmp.Name()
		tmp.Close()
		defer os.Remove(tmpPath)

		snap := render.Snapshot{AspectRatio: aspectRatio, Players: views}
		if err := render.DrawPNG(snap, cfg, tmpPath); err != nil {
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, tmpPath)
	}
}
