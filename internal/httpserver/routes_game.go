// internal/httpserver/routes_game.go
//
// HTTP routes for server-hosted snake games.
// Exposes under /game:
//   - POST   /game/new          → start a session ("classic" or "daily" mode)
//   - GET    /game/{id}         → current snapshot
//   - POST   /game/{id}/turn    → request a direction change
//   - POST   /game/{id}/start   → start / resume
//   - POST   /game/{id}/pause   → toggle pause
//   - POST   /game/{id}/toggle  → combined pause/start input
//   - POST   /game/{id}/reset   → back to a fresh idle run
//   - DELETE /game/{id}         → stop ticking and drop the session
//
// Sessions tick in the background on the server. Only the creator (user or
// anonymous cookie) may read or drive a session. Daily mode seeds food from
// HMAC(DAILY_SALT, date) so every player gets the same food sequence that day.
// On game over the final score goes straight into the scores store.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/snake/apps/go-server/internal/daily"
	"github.com/robalobadob/snake/apps/go-server/internal/food"
	"github.com/robalobadob/snake/apps/go-server/internal/game"
	"github.com/robalobadob/snake/apps/go-server/internal/scores"
	"github.com/robalobadob/snake/apps/go-server/internal/store"
)

// mountGames registers all /game routes.
func (s *Server) mountGames(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGetGame))
			r.Delete("/", s.withSession(s.handleDeleteGame))
			r.Post("/turn", s.withSession(s.handleTurn))
			r.Post("/start", s.withSession(control((*game.Loop).Start)))
			r.Post("/pause", s.withSession(control((*game.Loop).Pause)))
			r.Post("/toggle", s.withSession(control((*game.Loop).Toggle)))
			r.Post("/reset", s.withSession(control((*game.Loop).Reset)))
		})
	})
}

// newGameReq is the payload for POST /game/new.
type newGameReq struct {
	Mode string `json:"mode"` // "classic" (default) | "daily"
}

// gameRes is the session view returned by every /game route.
type gameRes struct {
	GameID string `json:"gameId"`
	Mode   string `json:"mode"`
	Date   string `json:"date"`
	game.Snapshot
}

func viewOf(sess *store.Session) gameRes {
	return gameRes{GameID: sess.ID, Mode: sess.Mode, Date: sess.Date, Snapshot: sess.Loop.Snapshot()}
}

// handleNewGame creates an idle session owned by the caller.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body → classic
	if req.Mode == "" {
		req.Mode = scores.ModeClassic
	}
	if req.Mode != scores.ModeClassic && req.Mode != scores.ModeDaily {
		http.Error(w, `{"error":"bad_mode"}`, http.StatusBadRequest)
		return
	}

	now := s.now()
	sess := &store.Session{ID: uuid.NewString(), Mode: req.Mode, Date: daily.DateKey(now)}
	if me := userFrom(r); me != nil {
		sess.UserID = me.ID
	} else {
		sess.AnonymousID = s.ensureAnonID(w, r)
	}

	cfg := game.DefaultConfig()
	var placer *food.Placer
	if req.Mode == scores.ModeDaily {
		placer = food.NewSeeded(cfg.Grid, daily.Seed(now, s.salt))
	}
	if high, err := s.scores.High(r.Context()); err == nil {
		cfg.InitialHighScore = high
	}
	eng, err := game.NewEngine(cfg, placer)
	if err != nil {
		log.Error().Err(err).Msg("new engine")
		http.Error(w, `{"error":"engine_failed"}`, http.StatusInternalServerError)
		return
	}
	sess.Loop = game.NewLoop(eng,
		game.WithScheduler(s.sched),
		game.WithReporter(s.sessionReporter(sess)),
	)

	if err := s.store.Save(r.Context(), sess); err != nil {
		sess.Loop.Close()
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("gameId", sess.ID).Str("mode", sess.Mode).Msg("game created")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

// sessionReporter persists a session's final score for its owner.
func (s *Server) sessionReporter(sess *store.Session) game.ScoreReporter {
	return game.ReporterFunc(func(ctx context.Context, score int) error {
		_, err := s.scores.Insert(ctx, scores.Entry{
			UserID:      sess.UserID,
			AnonymousID: sess.AnonymousID,
			Mode:        sess.Mode,
			Date:        sess.Date,
			Score:       score,
		})
		return err
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *store.Session)

// withSession loads {id} and checks the caller owns it.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"load_failed"}`, http.StatusInternalServerError)
			return
		}
		if !s.owns(r, sess) {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		h(w, r, sess)
	}
}

// owns reports whether the caller created sess.
func (s *Server) owns(r *http.Request, sess *store.Session) bool {
	if me := userFrom(r); me != nil && sess.UserID != "" {
		return me.ID == sess.UserID
	}
	if sess.AnonymousID == "" {
		return false
	}
	c, err := r.Cookie(anonCookieName)
	return err == nil && c.Value == sess.AnonymousID
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	if err := s.store.Delete(r.Context(), sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"delete_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// turnReq is the payload for POST /game/{id}/turn.
type turnReq struct {
	Direction string `json:"direction"`
}

type turnRes struct {
	Accepted bool `json:"accepted"`
	gameRes
}

// handleTurn buffers a direction change; reversals are accepted=false, not errors.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	var req turnReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	d, err := game.ParseDirection(req.Direction)
	if err != nil {
		http.Error(w, `{"error":"bad_direction"}`, http.StatusBadRequest)
		return
	}
	ok := sess.Loop.Turn(d)
	_ = json.NewEncoder(w).Encode(turnRes{Accepted: ok, gameRes: viewOf(sess)})
}

// control adapts a Loop method into a session handler returning the new view.
func control(op func(*game.Loop)) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess *store.Session) {
		op(sess.Loop)
		_ = json.NewEncoder(w).Encode(viewOf(sess))
	}
}
