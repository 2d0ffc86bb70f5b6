package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/waw-schedule/backend/internal/domain"
)

type passwordResetRepository struct {
	db *sqlx.DB
}

func newPasswordResetRepository(db *sqlx.DB) *passwordResetRepository {
	return &passwordResetRepository{
		db: db,
	}
}

func (r *passwordResetRepository) Replace(ctx context.Context, request *domain.PasswordResetRequest) error {
	const op = "repository.passwordReset.Replace"

	const deleteQuery = `DELETE FROM password_reset_request WHERE user_id = uuid_to_bin(?)`
	const insertQuery = `
    INSERT INTO password_reset_request (user_id, code, expires_at, verified, status)
    VALUES (uuid_to_bin(?), ?, ?, FALSE, ?)
    `

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, request.UserID); err != nil {
			return fmt.Errorf("%s: delete previous request failed: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, insertQuery, request.UserID, request.Code, request.ExpiresAt, domain.PasswordResetPending); err != nil {
			return fmt.Errorf("%s: insert request failed: %w", op, err)
		}

		return nil
	})
}

// IsCodeValid matches only unexpired requests that were not verified yet.
func (r *passwordResetRepository) IsCodeValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	const op = "repository.passwordReset.IsCodeValid"

	const query = `
    SELECT EXISTS(
        SELECT 1 FROM password_reset_request
        WHERE user_id = uuid_to_bin(?) AND code = ? AND expires_at > ? AND verified = FALSE
    )
    `

	var valid bool
	if err := r.db.GetContext(ctx, &valid, query, userID, code, now); err != nil {
		return false, fmt.Errorf("%s: check code failed: %w", op, err)
	}

	return valid, nil
}

func (r *passwordResetRepository) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	const op = "repository.passwordReset.MarkVerified"

	const query = `
    UPDATE password_reset_request SET verified = TRUE, status = ?
    WHERE user_id = uuid_to_bin(?)
    `

	res, err := r.db.ExecContext(ctx, query, domain.PasswordResetVerified, userID)
	if err != nil {
		return fmt.Errorf("%s: update request failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *passwordResetRepository) IsVerified(ctx context.Context, userID uuid.UUID) (bool, error) {
	const op = "repository.passwordReset.IsVerified"

	const query = `
    SELECT EXISTS(
        SELECT 1 FROM password_reset_request WHERE user_id = uuid_to_bin(?) AND verified = TRUE
    )
    `

	var verified bool
	if err := r.db.GetContext(ctx, &verified, query, userID); err != nil {
		return false, fmt.Errorf("%s: check request failed: %w", op, err)
	}

	return verified, nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	const op = "repository.passwordReset.Consume"

	const updateQuery = `UPDATE user SET password_hash = ?, updated_at = ? WHERE id = uuid_to_bin(?)`
	const deleteQuery = `
    DELETE FROM password_reset_request WHERE user_id = uuid_to_bin(?) AND verified = TRUE
    `

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, deleteQuery, userID)
		if err != nil {
			return fmt.Errorf("%s: delete request failed: %w", op, err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: get rows affected failed: %w", op, err)
		}
		if rows == 0 {
			return domain.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, updateQuery, passwordHash, time.Now(), userID); err != nil {
			return fmt.Errorf("%s: update password failed: %w", op, err)
		}

		return nil
	})
}
