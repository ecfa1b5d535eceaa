// internal/users/users.go
//
// Account persistence for the score server.
// Responsibilities:
//   - Create accounts with bcrypt-hashed passwords.
//   - Verify username/password pairs.
//   - Load accounts by id for token checks.
//
// Notes:
//   - Usernames are unique case-insensitively (users.username is NOCASE);
//     duplicates surface as the sqlite unique-constraint error and are mapped
//     to ErrUsernameTaken.

package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken  = errors.New("username taken")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrNotFound       = errors.New("user not found")
	// ErrInvalid wraps signup validation failures; the message is user facing.
	ErrInvalid = errors.New("invalid signup")
)

// User is one row of the users table.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Store struct {
	db    *sql.DB
	cost  int
	newID func() string
}

// NewStore wraps db. newID generates account ids.
func NewStore(db *sql.DB, newID func() string) *Store {
	return &Store{db: db, cost: bcrypt.DefaultCost, newID: newID}
}

// Create validates and inserts a new account.
func (s *Store) Create(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if err := validate(username, password); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return User{}, ErrUsernameTaken
	}
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate returns the account for username if password matches.
// Unknown users and wrong passwords both yield ErrBadCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.scan(s.db.QueryRowContext(ctx, selectUser+` WHERE username = ?`, strings.TrimSpace(username)))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// ByID loads one account.
func (s *Store) ByID(ctx context.Context, id string) (User, error) {
	return s.scan(s.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

const selectUser = `SELECT id, username, password_hash, created_at FROM users`

func (s *Store) scan(row *sql.Row) (User, error) {
	var (
		u       User
		created string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return u, nil
}

// validate enforces 3-24 char [A-Za-z0-9_] usernames and 8-100 char passwords.
func validate(username, password string) error {
	if len(username) < 3 || len(username) > 24 {
		return fmt.Errorf("%w: username must be 3-24 chars", ErrInvalid)
	}
	for _, r := range username {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: username: letters, numbers, underscore only", ErrInvalid)
		}
	}
	if len(password) < 8 || len(password) > 100 {
		return fmt.Errorf("%w: password must be 8-100 chars", ErrInvalid)
	}
	return nil
}
