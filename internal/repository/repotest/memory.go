// Package repotest provides in-memory repositories for tests of the layers
// above storage.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/waw-schedule/backend/internal/domain"
	"github.com/waw-schedule/backend/internal/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*domain.User
	verifications map[uuid.UUID]*domain.EmailVerification
	emailChanges  map[uuid.UUID]*domain.EmailChangeRequest
	resets        map[uuid.UUID]*domain.PasswordResetRequest
	availability  map[uuid.UUID][]domain.TimeSlot
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*domain.User),
		verifications: make(map[uuid.UUID]*domain.EmailVerification),
		emailChanges:  make(map[uuid.UUID]*domain.EmailChangeRequest),
		resets:        make(map[uuid.UUID]*domain.PasswordResetRequest),
		availability:  make(map[uuid.UUID][]domain.TimeSlot),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:              (*users)(s),
		EmailVerifications: (*verifications)(s),
		EmailChanges:       (*emailChanges)(s),
		PasswordResets:     (*passwordResets)(s),
		Availability:       (*availability)(s),
	}
}

// Verification returns a copy of the user's verification row.
func (s *Store) Verification(userID uuid.UUID) (domain.EmailVerification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[userID]
	if !ok {
		return domain.EmailVerification{}, false
	}
	return *v, true
}

func (s *Store) EmailChange(userID uuid.UUID) (domain.EmailChangeRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.emailChanges[userID]
	if !ok {
		return domain.EmailChangeRequest{}, false
	}
	return *r, true
}

func (s *Store) PasswordReset(userID uuid.UUID) (domain.PasswordResetRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resets[userID]
	if !ok {
		return domain.PasswordResetRequest{}, false
	}
	return *r, true
}

func (s *Store) userByEmail(email string) *domain.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

type users Store

func (r *users) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*Store)(r).userByEmail(email) != nil, nil
}

func (r *users) Create(_ context.Context, user *domain.User, verification *domain.EmailVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if (*Store)(r).userByEmail(user.Email) != nil {
		return domain.ErrDuplicateEntry
	}
	now := time.Now()
	u := *user
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = &u
	v := *verification
	v.UpdatedAt = now
	r.verifications[u.ID] = &v
	return nil
}

func (r *users) GetAll(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := (*Store)(r).userByEmail(email)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *users) GetOneByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *users) SetLastLogout(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNoRowsAffected
	}
	u.LastLogoutAt = &at
	return nil
}

func (r *users) UpdateBasic(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}
	r.mu.Lock()
	u, ok := r.users[id]
	if ok {
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Role != nil {
			u.Role = patch.Role
		}
		u.UpdatedAt = time.Now()
	}
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetOneByID(ctx, id)
}

func (r *users) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNoRowsAffected
	}
	u.PasswordHash = passwordHash
	return nil
}

type verifications Store

func (r *verifications) GetOneByUserID(_ context.Context, userID uuid.UUID) (*domain.EmailVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.verifications[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *verifications) IsCodeValid(_ context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.verifications[userID]
	return ok && v.Code == code && v.ExpiresAt.After(now), nil
}

func (r *verifications) MarkVerified(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.verifications[userID]
	if !ok {
		return domain.ErrNotFound
	}
	v.Verified = true
	return nil
}

func (r *verifications) Regenerate(_ context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.verifications[userID]
	if !ok {
		return domain.ErrNotFound
	}
	v.Code, v.ExpiresAt, v.Verified = code, expiresAt, false
	return nil
}

type emailChanges Store

func (r *emailChanges) Replace(_ context.Context, request *domain.EmailChangeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *request
	r.emailChanges[request.UserID] = &cp
	return nil
}

func (r *emailChanges) IsCodeValid(_ context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.emailChanges[userID]
	return ok && !req.Verified && req.Code == code && req.ExpiresAt.After(now), nil
}

func (r *emailChanges) Apply(_ context.Context, userID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.emailChanges[userID]
	if !ok || req.Verified {
		return "", domain.ErrNotFound
	}
	if other := (*Store)(r).userByEmail(req.NewEmail); other != nil && other.ID != userID {
		return "", domain.ErrDuplicateEntry
	}
	u, ok := r.users[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	req.Verified = true
	u.Email = req.NewEmail
	return req.NewEmail, nil
}

type passwordResets Store

func (r *passwordResets) Replace(_ context.Context, request *domain.PasswordResetRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *request
	r.resets[request.UserID] = &cp
	return nil
}

func (r *passwordResets) IsCodeValid(_ context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.resets[userID]
	return ok && !req.Verified && req.Code == code && req.ExpiresAt.After(now), nil
}

func (r *passwordResets) MarkVerified(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.resets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	req.Verified = true
	req.Status = domain.PasswordResetVerified
	return nil
}

func (r *passwordResets) IsVerified(_ context.Context, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.resets[userID]
	return ok && req.Verified, nil
}

func (r *passwordResets) Consume(_ context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.resets[userID]
	if !ok || !req.Verified {
		return domain.ErrNotFound
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.resets, userID)
	u.PasswordHash = passwordHash
	return nil
}

type availability Store

func (r *availability) Replace(_ context.Context, userID uuid.UUID, slots []domain.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]domain.TimeSlot, len(slots))
	for i, slot := range slots {
		slot.UserID = userID
		cp[i] = slot
	}
	r.availability[userID] = cp
	return nil
}

func (r *availability) GetByUserID(_ context.Context, userID uuid.UUID) ([]domain.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TimeSlot, len(r.availability[userID]))
	copy(out, r.availability[userID])
	return out, nil
}
