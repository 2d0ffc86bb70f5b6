package domain

import "github.com/google/uuid"

// TimeSlot is a weekly window, times in HH:MM.
type TimeSlot struct {
	UserID    uuid.UUID `db:"user_id" json:"-"`
	DayOfWeek string    `db:"day_of_week" json:"dayOfWeek"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
}
