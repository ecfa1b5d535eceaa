// internal/httpserver/auth.go
//
// Accounts and identity for the snake server.
// Exposes:
//   - POST /auth/signup, /auth/login, /auth/logout
//   - GET  /auth/me, /stats/me (require auth)
//
// Callers are identified by an HS256 JWT, read from "Authorization: Bearer"
// or the auth cookie. Guests get a long-lived anonymous cookie instead; their
// scores move onto the account at signup/login.

package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/snake/apps/go-server/internal/users"
)

const anonCookieName = "snake_anon"

// tokenIssuer signs and verifies session tokens and owns the cookie settings.
type tokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	cookie   string
	secure   bool
	sameSite http.SameSite
}

// tokensFromEnv reads JWT_SECRET, JWT_EXPIRES_DAYS (default 14), COOKIE_NAME
// and NODE_ENV. Production cookies are Secure and SameSite=None.
func tokensFromEnv() *tokenIssuer {
	days := 14
	if n, err := strconv.Atoi(os.Getenv("JWT_EXPIRES_DAYS")); err == nil && n > 0 {
		days = n
	}
	t := &tokenIssuer{
		secret:   []byte(getEnv("JWT_SECRET", "dev_secret_change_me")),
		ttl:      time.Duration(days) * 24 * time.Hour,
		cookie:   getEnv("COOKIE_NAME", "snake_token"),
		sameSite: http.SameSiteLaxMode,
	}
	if os.Getenv("NODE_ENV") == "production" {
		t.secure, t.sameSite = true, http.SameSiteNoneMode
	}
	return t
}

// claims carries the account id in Subject.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (t *tokenIssuer) issue(u users.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

func (t *tokenIssuer) verify(raw string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &c, nil
}

// fromRequest extracts a bearer token or the auth cookie.
func (t *tokenIssuer) fromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(t.cookie); err == nil {
		return c.Value
	}
	return ""
}

func (t *tokenIssuer) setCookie(w http.ResponseWriter, value string, exp time.Time) {
	c := &http.Cookie{
		Name:     t.cookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: t.sameSite,
		Expires:  exp,
	}
	if value == "" {
		c.Expires, c.MaxAge = time.Time{}, -1
	}
	http.SetCookie(w, c)
}

// authUser is placed into the request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// userFrom returns the authenticated user, or nil for guests.
func userFrom(r *http.Request) *authUser {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return me
}

// identify resolves the caller from the request token; the account must
// still exist.
func (s *Server) identify(r *http.Request) (*authUser, error) {
	raw := s.tokens.fromRequest(r)
	if raw == "" {
		return nil, errors.New("no token")
	}
	c, err := s.tokens.verify(raw)
	if err != nil {
		return nil, err
	}
	u, err := s.users.ByID(r.Context(), c.Subject)
	if err != nil {
		return nil, err
	}
	return &authUser{ID: u.ID, Username: u.Username}, nil
}

// withOptionalAuth attaches the caller when a valid token is present and
// never rejects; guests fall through.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if me, err := s.identify(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects requests without a valid token with 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		me, err := s.identify(r)
		if err != nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me)))
	})
}

// mountAuth registers /auth/* and /stats/me.
func (s *Server) mountAuth(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.requireAuth).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(userFrom(r))
	})
	r.With(s.requireAuth).Get("/stats/me", s.handleMyStats)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionRes struct {
	users.User
	Token string `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
		return
	case errors.Is(err, users.ErrInvalid):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), users.ErrInvalid.Error()+": "))
		return
	case err != nil:
		log.Error().Err(err).Msg("create user")
		http.Error(w, `{"error":"signup_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("user", u.ID).Msg("signed up")
	s.startSession(w, r, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if errors.Is(err, users.ErrBadCredentials) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("authenticate")
		http.Error(w, `{"error":"login_failed"}`, http.StatusInternalServerError)
		return
	}
	s.startSession(w, r, u)
}

// startSession signs a token for u, sets the cookie, claims the caller's
// guest scores and writes the account with its token.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u users.User) {
	tok, exp, err := s.tokens.issue(u)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.tokens.setCookie(w, tok, exp)
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		if err := s.scores.ClaimAnonymous(r.Context(), c.Value, u.ID); err != nil {
			log.Warn().Err(err).Str("user", u.ID).Msg("claim anon scores")
		}
	}
	_ = json.NewEncoder(w).Encode(sessionRes{User: u, Token: tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.tokens.setCookie(w, "", time.Time{})
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.scores.UserStats(r.Context(), userFrom(r).ID)
	if err != nil {
		log.Error().Err(err).Msg("user stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(st)
}

// ensureAnonID returns the caller's anonymous id, setting the cookie on
// first contact.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.tokens.secure,
		SameSite: s.tokens.sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	// Visible to later handlers of this same request.
	r.AddCookie(&http.Cookie{Name: anonCookieName, Value: id})
	return id
}

// genID returns a 22-char URL-safe random identifier.
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// writeError writes {"error": msg} with proper JSON escaping.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
