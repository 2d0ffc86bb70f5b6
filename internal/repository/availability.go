package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/waw-schedule/backend/internal/domain"
)

type availabilityRepository struct {
	db *sqlx.DB
}

func newAvailabilityRepository(db *sqlx.DB) *availabilityRepository {
	return &availabilityRepository{
		db: db,
	}
}

// Replace swaps the whole weekly schedule of a user.
func (r *availabilityRepository) Replace(ctx context.Context, userID uuid.UUID, slots []domain.TimeSlot) error {
	const deleteQuery = `DELETE FROM availability WHERE user_id = uuid_to_bin(?)`
	const insertQuery = `
	INSERT INTO availability (user_id, day_of_week, start_time, end_time)
	VALUES (uuid_to_bin(?), ?, ?, ?)
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, userID); err != nil {
			return fmt.Errorf("delete availability failed: %w", err)
		}

		for _, slot := range slots {
			if _, err := tx.ExecContext(ctx, insertQuery, userID, slot.DayOfWeek, slot.StartTime, slot.EndTime); err != nil {
				return fmt.Errorf("insert availability failed: %w", err)
			}
		}

		return nil
	})
}

func (r *availabilityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.TimeSlot, error) {
	const query = `
	SELECT user_id, day_of_week, start_time, end_time
	FROM availability
	WHERE user_id = uuid_to_bin(?)
	ORDER BY FIELD(day_of_week, 'monday', 'tuesday', 'wednesday', 'thursday', 'friday', 'saturday', 'sunday'), start_time
	`

	slots := make([]domain.TimeSlot, 0)
	if err := r.db.SelectContext(ctx, &slots, query, userID); err != nil {
		return nil, fmt.Errorf("select availability failed: %w", err)
	}

	return slots, nil
}
