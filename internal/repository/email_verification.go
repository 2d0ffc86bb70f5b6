package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/waw-schedule/backend/internal/domain"
)

type emailVerificationRepository struct {
	db *sqlx.DB
}

func newEmailVerificationRepository(db *sqlx.DB) *emailVerificationRepository {
	return &emailVerificationRepository{
		db: db,
	}
}

func (r *emailVerificationRepository) GetOneByUserID(ctx context.Context, userID uuid.UUID) (*domain.EmailVerification, error) {
	const op = "repository.emailVerification.GetOneByUserID"

	const query = `
    SELECT user_id, code, expires_at, verified, updated_at
    FROM email_verification
    WHERE user_id = uuid_to_bin(?)
    `

	var verification domain.EmailVerification
	if err := r.db.GetContext(ctx, &verification, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select email verification failed: %w", op, err)
	}

	return &verification, nil
}

func (r *emailVerificationRepository) IsCodeValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	const op = "repository.emailVerification.IsCodeValid"

	const query = `
    SELECT EXISTS(
        SELECT 1 FROM email_verification
        WHERE user_id = uuid_to_bin(?) AND code = ? AND expires_at > ?
    )
    `

	var valid bool
	if err := r.db.GetContext(ctx, &valid, query, userID, code, now); err != nil {
		return false, fmt.Errorf("%s: check code failed: %w", op, err)
	}

	return valid, nil
}

func (r *emailVerificationRepository) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	const op = "repository.emailVerification.MarkVerified"

	const query = `UPDATE email_verification SET verified = TRUE WHERE user_id = uuid_to_bin(?)`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: update email verification failed: %w", op, err)
	}

	return nil
}

// Regenerate replaces the code and clears the verified flag.
func (r *emailVerificationRepository) Regenerate(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	const op = "repository.emailVerification.Regenerate"

	const query = `
    UPDATE email_verification
    SET code = ?, expires_at = ?, verified = FALSE
    WHERE user_id = uuid_to_bin(?)
    `

	res, err := r.db.ExecContext(ctx, query, code, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("%s: update email verification failed: %w", op, err)
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
