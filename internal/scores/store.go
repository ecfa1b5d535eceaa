// internal/scores/store.go
//
// SQLite-backed persistence for finished snake runs.
// Responsibilities:
//   - Validate and insert final scores (user or anonymous owner).
//   - Maintain per-user counters (games played, best score) in the same tx.
//   - Leaderboards: overall top, daily-mode top for a date, global high score.
//   - Move anonymous history onto an account after signup/login.

package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/robalobadob/snake/apps/go-server/internal/game"
)

// ErrInvalidScore is returned for negative scores or ones that are not a
// whole number of food increments.
var ErrInvalidScore = errors.New("invalid score")

// Game modes stored with each score.
const (
	ModeClassic = "classic"
	ModeDaily   = "daily"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Entry is one finished run to persist. Exactly one of UserID/AnonymousID
// should be set; both empty records an unowned score.
type Entry struct {
	UserID      string
	AnonymousID string
	Mode        string
	Date        string // "YYYY-MM-DD" UTC
	Score       int
}

// Row is a leaderboard line.
type Row struct {
	Username  string `json:"username,omitempty"`
	Score     int    `json:"score"`
	Mode      string `json:"mode"`
	Date      string `json:"date"`
	CreatedAt string `json:"createdAt"`
}

// Stats summarizes one account.
type Stats struct {
	UserID      string `json:"id"`
	GamesPlayed int    `json:"gamesPlayed"`
	BestScore   int    `json:"bestScore"`
}

// Validate checks a submitted score.
func Validate(score int) error {
	if score < 0 || score%game.ScoreIncrement != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidScore, score)
	}
	return nil
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records e and returns the owner's best score afterwards.
func (s *Store) Insert(ctx context.Context, e Entry) (int, error) {
	if err := Validate(e.Score); err != nil {
		return 0, err
	}
	if e.Mode == "" {
		e.Mode = ModeClassic
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO snake_scores (user_id, anonymous_id, mode, date, score)
        VALUES (?, ?, ?, ?, ?)`,
		nullable(e.UserID), nullable(e.AnonymousID), e.Mode, e.Date, e.Score,
	); err != nil {
		return 0, fmt.Errorf("insert score: %w", err)
	}

	if e.UserID != "" {
		if _, err := tx.ExecContext(ctx, `
            UPDATE users
            SET games_played = games_played + 1,
                best_score   = MAX(best_score, ?)
            WHERE id = ?`, e.Score, e.UserID,
		); err != nil {
			return 0, fmt.Errorf("bump stats: %w", err)
		}
	}

	best, err := bestFor(ctx, tx, e)
	if err != nil {
		return 0, err
	}
	return best, tx.Commit()
}

// bestFor returns the owner's best score (or e.Score for unowned entries).
func bestFor(ctx context.Context, tx *sql.Tx, e Entry) (int, error) {
	var (
		best int
		err  error
	)
	switch {
	case e.UserID != "":
		err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(score), 0) FROM snake_scores WHERE user_id=?`, e.UserID).Scan(&best)
	case e.AnonymousID != "":
		err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(score), 0) FROM snake_scores WHERE anonymous_id=?`, e.AnonymousID).Scan(&best)
	default:
		best = e.Score
	}
	return best, err
}

// High returns the best score ever recorded, 0 when empty.
func (s *Store) High(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(score), 0) FROM snake_scores`).Scan(&n)
	return n, err
}

// Top returns the highest scores across all modes.
func (s *Store) Top(ctx context.Context, limit int) ([]Row, error) {
	return s.query(ctx, `
        SELECT COALESCE(u.username, ''), s.score, s.mode, s.date, s.created_at
        FROM snake_scores s LEFT JOIN users u ON u.id = s.user_id
        ORDER BY s.score DESC, s.created_at ASC
        LIMIT ?`, clampLimit(limit))
}

// Daily returns the daily-mode leaderboard for date.
func (s *Store) Daily(ctx context.Context, date string, limit int) ([]Row, error) {
	return s.query(ctx, `
        SELECT COALESCE(u.username, ''), s.score, s.mode, s.date, s.created_at
        FROM snake_scores s LEFT JOIN users u ON u.id = s.user_id
        WHERE s.mode = ? AND s.date = ?
        ORDER BY s.score DESC, s.created_at ASC
        LIMIT ?`, ModeDaily, date, clampLimit(limit))
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Username, &r.Score, &r.Mode, &r.Date, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UserStats loads counters for one account.
func (s *Store) UserStats(ctx context.Context, userID string) (Stats, error) {
	st := Stats{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, best_score FROM users WHERE id=?`, userID,
	).Scan(&st.GamesPlayed, &st.BestScore)
	return st, err
}

// ClaimAnonymous transfers a guest's scores to userID and folds them into
// the account counters.
func (s *Store) ClaimAnonymous(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n, best int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(MAX(score), 0) FROM snake_scores WHERE anonymous_id=?`, anonID,
	).Scan(&n, &best); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE snake_scores SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET games_played = games_played + ?, best_score = MAX(best_score, ?) WHERE id=?`,
		n, best, userID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return min(n, MaxLimit)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
