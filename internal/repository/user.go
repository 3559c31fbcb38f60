package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/contactbook/contactbook-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, avatar_url, refresh_fingerprint, is_verified, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID on the user struct.
// Users start unverified; the is_verified column defaults to FALSE.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, password_hash, avatar_url) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.AvatarURL)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// SetVerified marks a user's email address as verified. Calling it on an
// already verified user is a no-op.
func (r *UserRepository) SetVerified(ctx context.Context, id int64) error {
	query := `UPDATE users SET is_verified = TRUE WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// SetRefreshFingerprint stores the fingerprint of the most recently issued
// refresh token, overwriting any prior value. An empty fingerprint clears
// the column, invalidating all outstanding refresh tokens for the user.
func (r *UserRepository) SetRefreshFingerprint(ctx context.Context, id int64, fingerprint string) error {
	query := `UPDATE users SET refresh_fingerprint = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, sql.NullString{String: fingerprint, Valid: fingerprint != ""}, id)
	return err
}

// SetAvatarURL updates the user's avatar URL.
func (r *UserRepository) SetAvatarURL(ctx context.Context, id int64, url string) error {
	query := `UPDATE users SET avatar_url = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, url, id)
	return err
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var avatar, fingerprint sql.NullString

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &avatar,
		&fingerprint, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.AvatarURL = avatar.String
	user.RefreshFingerprint = fingerprint.String
	return user, nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
