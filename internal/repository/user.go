package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/waw-schedule/backend/internal/db"
	"github.com/waw-schedule/backend/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, password_hash, role, last_logout_at, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

func newUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM user WHERE email = ?)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check user email exists failed: %w", err)
	}

	return exists, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User, verification *domain.EmailVerification) error {
	const op = "repository.user.Create"

	const userQuery = `
	INSERT INTO user (id, name, email, password_hash, role)
	VALUES (uuid_to_bin(?), ?, ?, ?, ?);
	`
	const verificationQuery = `
	INSERT INTO email_verification (user_id, code, expires_at, verified)
	VALUES (uuid_to_bin(?), ?, ?, FALSE);
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, userQuery, user.ID, user.Name, user.Email, user.PasswordHash, user.Role); err != nil {
			//nolint:errorlint
			if mysqlError, ok := err.(*mysql.MySQLError); ok && mysqlError.Number == db.DuplicateEntry {
				return domain.ErrDuplicateEntry
			}
			return fmt.Errorf("%s: insert user failed: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, verificationQuery, verification.UserID, verification.Code, verification.ExpiresAt); err != nil {
			return fmt.Errorf("%s: insert email verification failed: %w", op, err)
		}

		return nil
	})
}

func (r *userRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user ORDER BY created_at`

	users := make([]domain.User, 0)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("select users failed: %w", err)
	}

	return users, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user WHERE email = ? LIMIT 1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select from user by email failed: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user WHERE id = uuid_to_bin(?)`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select from user by id failed: %w", err)
	}

	return &user, nil
}

func (r *userRepository) SetLastLogout(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `UPDATE user SET last_logout_at = ? WHERE id = uuid_to_bin(?)`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("update user last logout failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected failed: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}

// UpdateBasic writes only the fields set in patch. Column names are fixed
// here and never taken from the request.
func (r *userRepository) UpdateBasic(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}

	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, patch.Role)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id)

	query := `UPDATE user SET ` + strings.Join(sets, ", ") + ` WHERE id = uuid_to_bin(?)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update user basic fields failed: %w", err)
	}

	return r.GetOneByID(ctx, id)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE user SET password_hash = ?, updated_at = ? WHERE id = uuid_to_bin(?)`

	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update user password failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected failed: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}
