// internal/httpserver/server.go
//
// HTTP server wiring for the Snake backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Score submission (optional auth): POST /save_snake_score.
//   - Leaderboards: GET /scores/high, /scores/top, /scores/daily.
//   - Server-hosted games (optional auth): mounted under /game.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me (see auth.go).
//
// Notes:
//   - CORS is origin‑aware and credentials‑enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     routes can still run for guests, who are tracked by an anonymous cookie.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/snake/apps/go-server/internal/daily"
	"github.com/robalobadob/snake/apps/go-server/internal/game"
	"github.com/robalobadob/snake/apps/go-server/internal/scores"
	"github.com/robalobadob/snake/apps/go-server/internal/store"
	"github.com/robalobadob/snake/apps/go-server/internal/users"
)

// Server bundles router, session store and the DB-backed stores.
type Server struct {
	r      *chi.Mux
	store  store.Store
	scores *scores.Store
	users  *users.Store
	tokens *tokenIssuer

	salt  string
	now   func() time.Time
	sched game.Scheduler
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides time.Now (date keys, daily seeds).
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithScheduler sets the tick scheduler used by hosted game sessions.
func WithScheduler(sc game.Scheduler) Option { return func(s *Server) { s.sched = sc } }

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, opts ...Option) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		scores: scores.NewStore(db),
		users:  users.NewStore(db, genID),
		tokens: tokensFromEnv(),
		salt:   getEnv("DAILY_SALT", "local_dev_salt"),
		now:    time.Now,
		sched:  game.RealScheduler(),
	}
	for _, o := range opts {
		o(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"snake-go","endpoints":["/health","POST /save_snake_score","/scores/*","/game/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Score submission: optional auth, guests can play
	s.r.With(s.withOptionalAuth).Post("/save_snake_score", s.handleSaveScore)

	// Leaderboards: public
	s.r.Route("/scores", func(r chi.Router) {
		r.Get("/high", s.handleHighScore)
		r.Get("/top", s.handleTopScores)
		r.Get("/daily", s.handleDailyScores)
	})

	// Hosted games: optional auth
	s.mountGames(s.r.With(s.withOptionalAuth))

	// Auth + profile/stats
	s.mountAuth(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Close stops every hosted game.
func (s *Server) Close() { s.store.Close() }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ SCORES -------------------------------------

// saveScoreReq is the payload of POST /save_snake_score.
type saveScoreReq struct {
	Score *int `json:"score"`
}

type saveScoreRes struct {
	OK   bool `json:"ok"`
	Best int  `json:"best"`
}

// handleSaveScore records a finished classic run for the caller.
func (s *Server) handleSaveScore(w http.ResponseWriter, r *http.Request) {
	var req saveScoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.Score == nil {
		http.Error(w, `{"error":"invalid_score"}`, http.StatusBadRequest)
		return
	}

	e := scores.Entry{Mode: scores.ModeClassic, Date: daily.DateKey(s.now()), Score: *req.Score}
	if me := userFrom(r); me != nil {
		e.UserID = me.ID
	} else {
		e.AnonymousID = s.ensureAnonID(w, r)
	}

	best, err := s.scores.Insert(r.Context(), e)
	if errors.Is(err, scores.ErrInvalidScore) {
		http.Error(w, `{"error":"invalid_score"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Error().Err(err).Int("score", e.Score).Msg("save score")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Int("score", e.Score).Str("user", e.UserID).Msg("score saved")
	_ = json.NewEncoder(w).Encode(saveScoreRes{OK: true, Best: best})
}

// handleHighScore returns the best score ever recorded.
func (s *Server) handleHighScore(w http.ResponseWriter, r *http.Request) {
	n, err := s.scores.High(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("high score")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]int{"highScore": n})
}

// handleTopScores returns the overall leaderboard (?limit=, default 20).
func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	rows, err := s.scores.Top(r.Context(), queryInt(r, "limit"))
	if err != nil {
		log.Error().Err(err).Msg("top scores")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"top": rows})
}

// handleDailyScores returns the daily-mode leaderboard for ?date= (default today).
func (s *Server) handleDailyScores(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, `{"error":"bad_date"}`, http.StatusBadRequest)
		return
	}
	rows, err := s.scores.Daily(r.Context(), date, queryInt(r, "limit"))
	if err != nil {
		log.Error().Err(err).Msg("daily scores")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"date": date, "top": rows})
}

// queryInt parses an integer query param; 0 when absent or malformed.
func queryInt(r *http.Request, k string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(k))
	return n
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
