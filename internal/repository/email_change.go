package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/waw-schedule/backend/internal/db"
	"github.com/waw-schedule/backend/internal/domain"

	"github.com/go-sql-driver/mysql"
)

type emailChangeRepository struct {
	db *sqlx.DB
}

func newEmailChangeRepository(db *sqlx.DB) *emailChangeRepository {
	return &emailChangeRepository{
		db: db,
	}
}

// Replace drops any pending request of the user before storing the new one.
func (r *emailChangeRepository) Replace(ctx context.Context, request *domain.EmailChangeRequest) error {
	const op = "repository.emailChange.Replace"

	const deleteQuery = `DELETE FROM email_change_request WHERE user_id = uuid_to_bin(?)`
	const insertQuery = `
    INSERT INTO email_change_request (user_id, current_email, new_email, code, expires_at, verified)
    VALUES (uuid_to_bin(?), ?, ?, ?, ?, FALSE)
    `

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, request.UserID); err != nil {
			return fmt.Errorf("%s: delete previous request failed: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, insertQuery,
			request.UserID,
			request.CurrentEmail,
			request.NewEmail,
			request.Code,
			request.ExpiresAt,
		); err != nil {
			return fmt.Errorf("%s: insert request failed: %w", op, err)
		}

		return nil
	})
}

func (r *emailChangeRepository) IsCodeValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	const op = "repository.emailChange.IsCodeValid"

	const query = `
    SELECT EXISTS(
        SELECT 1 FROM email_change_request
        WHERE user_id = uuid_to_bin(?) AND code = ? AND expires_at > ? AND verified = FALSE
    )
    `

	var valid bool
	if err := r.db.GetContext(ctx, &valid, query, userID, code, now); err != nil {
		return false, fmt.Errorf("%s: check code failed: %w", op, err)
	}

	return valid, nil
}

func (r *emailChangeRepository) Apply(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "repository.emailChange.Apply"

	const markQuery = `
    UPDATE email_change_request SET verified = TRUE
    WHERE user_id = uuid_to_bin(?) AND verified = FALSE
    `
	const selectQuery = `SELECT new_email FROM email_change_request WHERE user_id = uuid_to_bin(?)`
	const updateUserQuery = `UPDATE user SET email = ?, updated_at = ? WHERE id = uuid_to_bin(?)`

	var newEmail string
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, markQuery, userID)
		if err != nil {
			return fmt.Errorf("%s: mark request verified failed: %w", op, err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: get rows affected failed: %w", op, err)
		}
		if rows == 0 {
			return domain.ErrNotFound
		}

		if err := tx.GetContext(ctx, &newEmail, selectQuery, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("%s: select new email failed: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, updateUserQuery, newEmail, time.Now(), userID); err != nil {
			//nolint:errorlint
			if mysqlError, ok := err.(*mysql.MySQLError); ok && mysqlError.Number == db.DuplicateEntry {
				return domain.ErrDuplicateEntry
			}
			return fmt.Errorf("%s: update user email failed: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return newEmail, nil
}
