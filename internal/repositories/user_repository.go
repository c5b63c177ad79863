package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"course-chat-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the read-side user collaborator.
type UserRepository interface {
	FindByID(ctx context.Context, userID int) (models.User, error)
	FindByIDs(ctx context.Context, userIDs []int) ([]models.User, error)
	TouchLastActive(ctx context.Context, userID int) error
}

// UserRepo is a sqlx-backed repository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, user_name, user_email, password_hash, role, last_active FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// FindByIDs returns the display projection for a set of users. The credential
// hash column is not selected. Unknown ids are silently skipped.
func (r *UserRepo) FindByIDs(ctx context.Context, userIDs []int) ([]models.User, error) {
	if len(userIDs) == 0 {
		return []models.User{}, nil
	}
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, user_name, user_email, role, last_active FROM users WHERE id = ANY($1) ORDER BY user_name ASC`,
		pq.Array(userIDs))
	return users, err
}

// TouchLastActive updates the user's last-active timestamp. Callers treat it
// as best-effort; a failed write never fails the surrounding request.
func (r *UserRepo) TouchLastActive(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_active = NOW() WHERE id=$1`, userID)
	return err
}
