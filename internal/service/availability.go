package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/waw-schedule/backend/internal/domain"
	"github.com/waw-schedule/backend/internal/repository"

	"github.com/google/uuid"
)

type availabilityService struct {
	availability repository.Availability
	users        repository.Users
}

func newAvailabilityService(availability repository.Availability, users repository.Users) *availabilityService {
	return &availabilityService{
		availability: availability,
		users:        users,
	}
}

// Replace overwrites the weekly schedule. HH:MM strings compare in time order.
func (s *availabilityService) Replace(ctx context.Context, userID uuid.UUID, slots []domain.TimeSlot) error {
	for _, slot := range slots {
		if slot.StartTime >= slot.EndTime {
			return ErrInvalidTimeSlot
		}
	}

	if _, err := s.users.GetOneByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user by id failed: %w", err)
	}

	return s.availability.Replace(ctx, userID, slots)
}

func (s *availabilityService) Get(ctx context.Context, userID uuid.UUID) ([]domain.TimeSlot, error) {
	return s.availability.GetByUserID(ctx, userID)
}
