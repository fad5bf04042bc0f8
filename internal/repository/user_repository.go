package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/pomodoro-flow/internal/model"
	"github.com/iliyamo/pomodoro-flow/internal/utils"
)

type UserRepo struct {
	DB  *sql.DB
	Now Clock
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrUserExists is returned by Create when the username or email is taken.
var ErrUserExists = fmt.Errorf("%w: username or email already exists", ErrConflict)

// ErrUserNotFound is returned by GetByID when no row matches.
var ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

// dummyHash is compared against when the username does not exist so that
// unknown users and wrong passwords take the same time.
var dummyHash, _ = utils.HashPassword("not-a-real-password", 4)

// ValidateRegistration applies the registration rules to already trimmed
// input.
func ValidateRegistration(username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return model.Invalid("All fields are required")
	}
	if len([]rune(username)) < 3 {
		return model.Invalid("Username must be at least 3 characters long")
	}
	if len(password) < 6 {
		return model.Invalid("Password must be at least 6 characters long")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return model.Invalid("Please enter a valid email address")
	}
	return nil
}

// Create validates the input, hashes the password and inserts the user.
// It returns ErrUserExists when the username or email is already taken.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateRegistration(username, email, password); err != nil {
		return 0, err
	}

	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username=? OR email=? LIMIT 1",
		username, email).Scan(&existing)
	switch {
	case err == nil:
		return 0, ErrUserExists
	case !errors.Is(err, sql.ErrNoRows):
		return 0, err
	}

	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?,?,?,?)",
		username, email, hash, stamp(r.Now))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Authenticate looks the user up by username and verifies the password.
// It returns (nil, nil) for an unknown user and for a wrong password alike;
// only storage failures produce an error.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := r.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.VerifyPassword(dummyHash, password)
			return nil, nil
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, nil
	}
	return u, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,created_at FROM users WHERE username=? LIMIT 1",
		username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,created_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
