package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/waw-schedule/backend/internal/domain"
)

// resetUser resolves the account behind a reset request. With masking on,
// an unknown email is reported as masked so callers can answer the same way
// they would for a bad code.
func (s *userService) resetUser(ctx context.Context, email string) (*domain.User, bool, error) {
	user, err := s.userRepository.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if s.authConfig.MaskUnknownResetEmail {
				return nil, true, nil
			}
			return nil, false, ErrEmailNotExist
		}
		return nil, false, fmt.Errorf("get user by email failed: %w", err)
	}

	return user, false, nil
}

func (s *userService) InitPasswordReset(ctx context.Context, email string) error {
	user, masked, err := s.resetUser(ctx, email)
	if err != nil {
		return err
	}
	if masked {
		return nil
	}

	code, expiresAt := s.newCode()
	if err := s.passwordResetRepo.Replace(ctx, &domain.PasswordResetRequest{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: expiresAt,
		Status:    domain.PasswordResetPending,
	}); err != nil {
		return fmt.Errorf("save password reset request failed: %w", err)
	}

	return s.emails.SendCode(ctx, CodeEmailInput{
		Kind:  EmailKindPasswordReset,
		Email: user.Email,
		Name:  user.Name,
		Code:  code,
	})
}

func (s *userService) VerifyPasswordReset(ctx context.Context, email, code string) error {
	user, masked, err := s.resetUser(ctx, email)
	if err != nil {
		return err
	}
	if masked {
		return ErrVerificationCodeInvalid
	}

	valid, err := s.passwordResetRepo.IsCodeValid(ctx, user.ID, code, s.now())
	if err != nil {
		return fmt.Errorf("check password reset code failed: %w", err)
	}
	if !valid {
		return ErrVerificationCodeInvalid
	}

	if err := s.passwordResetRepo.MarkVerified(ctx, user.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrVerificationCodeInvalid
		}
		return fmt.Errorf("mark password reset verified failed: %w", err)
	}

	return nil
}

// ApplyPasswordReset consumes a verified request, so a second call fails.
func (s *userService) ApplyPasswordReset(ctx context.Context, email, newPassword string) error {
	user, masked, err := s.resetUser(ctx, email)
	if err != nil {
		return err
	}
	if masked {
		return ErrPasswordResetNotVerified
	}

	verified, err := s.passwordResetRepo.IsVerified(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("check password reset status failed: %w", err)
	}
	if !verified {
		return ErrPasswordResetNotVerified
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password failed: %w", err)
	}

	if err := s.passwordResetRepo.Consume(ctx, user.ID, passwordHash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrPasswordResetNotVerified
		}
		return fmt.Errorf("apply password reset failed: %w", err)
	}

	return s.revokeSessions(ctx, user.ID)
}
