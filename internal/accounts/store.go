package accounts

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dhanushraagav/ai-interview-platform/internal/model"

	_ "modernc.org/sqlite"
)

// DefaultTokenTTL is how long a login token stays valid.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// Store persists user accounts and their bearer tokens in SQLite. Interview
// sessions are deliberately not stored here; account state is unrelated to
// session state.
type Store struct {
	db       *sql.DB
	tokenTTL time.Duration
}

// New opens (or creates) the accounts database.
func New(dbPath string, tokenTTL time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	s := &Store{db: db, tokenTTL: tokenTTL}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_tokens (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Store) Register(username, email, password string) (*model.User, error) {
	if existing, err := s.GetUserByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	var emailCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&emailCount); err != nil {
		return nil, err
	}
	if emailCount > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, email, string(hash), now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	slog.Info("registered user", "id", id, "username", username)
	return &model.User{ID: id, Username: username, Email: email, CreatedAt: now}, nil
}

// Authenticate verifies a username/password pair and returns the user.
func (s *Store) Authenticate(username, password string) (*model.User, error) {
	u, err := s.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUserByUsername returns a user by username, or nil when absent.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns a user by ID, or nil when absent.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserCount returns the total number of accounts.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateToken issues a new opaque bearer token for a user.
func (s *Store) CreateToken(userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO auth_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, now, now.Add(s.tokenTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// UserForToken resolves a bearer token to its user, or nil when the token is
// unknown or expired. Expired tokens are removed on sight.
func (s *Store) UserForToken(token string) (*model.User, error) {
	var t model.AuthToken
	err := s.db.QueryRow(
		`SELECT token, user_id, created_at, expires_at FROM auth_tokens WHERE token = ?`, token,
	).Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(t.ExpiresAt) {
		_ = s.DeleteToken(token)
		return nil, nil
	}
	return s.GetUserByID(t.UserID)
}

// DeleteToken revokes a bearer token.
func (s *Store) DeleteToken(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens WHERE token = ?`, token)
	return err
}

// CleanupExpiredTokens removes all expired tokens.
func (s *Store) CleanupExpiredTokens() error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens WHERE expires_at < ?`, time.Now())
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
