package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waw-schedule/backend/internal/cache"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/domain"
	"github.com/waw-schedule/backend/internal/repository"
	"github.com/waw-schedule/backend/pkg/auth"
	"github.com/waw-schedule/backend/pkg/hash"
	"github.com/waw-schedule/backend/pkg/logger"
	"github.com/waw-schedule/backend/pkg/otp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type userService struct {
	userRepository         repository.Users
	verificationRepository repository.EmailVerifications
	emailChangeRepository  repository.EmailChanges
	passwordResetRepo      repository.PasswordResets
	hasher                 hash.PasswordHasher
	tokenManager           auth.TokenManager
	otpGenerator           otp.Generator
	emails                 Emails
	authState              cache.AuthStateStore
	authConfig             config.AuthConfig
	now                    func() time.Time
}

func newUserService(repos *repository.Repositories,
	hasher hash.PasswordHasher,
	tokenManager auth.TokenManager,
	otpGenerator otp.Generator,
	emails Emails,
	authState cache.AuthStateStore,
	authConfig config.AuthConfig,
	now func() time.Time,
) *userService {
	return &userService{
		userRepository:         repos.Users,
		verificationRepository: repos.EmailVerifications,
		emailChangeRepository:  repos.EmailChanges,
		passwordResetRepo:      repos.PasswordResets,
		hasher:                 hasher,
		tokenManager:           tokenManager,
		otpGenerator:           otpGenerator,
		emails:                 emails,
		authState:              authState,
		authConfig:             authConfig,
		now:                    now,
	}
}

func (s *userService) newCode() (string, time.Time) {
	length := s.authConfig.VerificationCodeLength
	if length <= 0 {
		length = otp.DefaultLength
	}
	return s.otpGenerator.RandomCode(length), otp.ExpiresAt(s.now(), s.authConfig.CodeTTL())
}

// SignUp stores the user with an unverified email and mails the first code.
// The account stays in place if the email cannot be sent.
func (s *userService) SignUp(ctx context.Context, input SignUpInput) (*domain.User, error) {
	exists, err := s.userRepository.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email failed: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExist
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id failed: %w", err)
	}

	code, expiresAt := s.newCode()
	user := &domain.User{
		ID:           userID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleList{domain.RoleUser},
	}
	verification := &domain.EmailVerification{
		UserID:    userID,
		Code:      code,
		ExpiresAt: expiresAt,
	}

	if err := s.userRepository.Create(ctx, user, verification); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExist
		}
		return nil, fmt.Errorf("create user failed: %w", err)
	}

	if err := s.emails.SendCode(ctx, CodeEmailInput{
		Kind:  EmailKindVerification,
		Email: user.Email,
		Name:  user.Name,
		Code:  code,
	}); err != nil {
		return user, err
	}

	return user, nil
}

func (s *userService) GetAll(ctx context.Context) ([]domain.User, error) {
	return s.userRepository.GetAll(ctx)
}

func (s *userService) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	user, err := s.userRepository.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrEmailNotExist
		}
		return nil, fmt.Errorf("get user by email failed: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrPasswordNotMatch
	}

	verification, err := s.verificationRepository.GetOneByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get email verification failed: %w", err)
	}
	if verification == nil || !verification.Verified {
		return nil, ErrEmailNotVerified
	}

	var res Tokens
	res.AccessToken, res.AccessTTL, err = s.tokenManager.NewJWT(auth.Payload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("generate access token failed: %w", err)
	}

	return &res, nil
}

func (s *userService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.revokeSessions(ctx, userID)
}

// revokeSessions moves the logout cutoff to now, invalidating every token
// issued before it.
func (s *userService) revokeSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepository.SetLastLogout(ctx, userID, s.now()); err != nil {
		if errors.Is(err, domain.ErrNoRowsAffected) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set last logout failed: %w", err)
	}

	if err := s.authState.Delete(ctx, userID); err != nil {
		logger.Error("auth state cache invalidation failed", zap.String("userid", userID.String()), zap.Error(err))
	}

	return nil
}

func (s *userService) VerifyEmail(ctx context.Context, userID uuid.UUID, code string) error {
	valid, err := s.verificationRepository.IsCodeValid(ctx, userID, code, s.now())
	if err != nil {
		return fmt.Errorf("check verification code failed: %w", err)
	}
	if !valid {
		return ErrVerificationCodeInvalid
	}

	if err := s.verificationRepository.MarkVerified(ctx, userID); err != nil {
		return fmt.Errorf("mark email verified failed: %w", err)
	}

	return nil
}

func (s *userService) ResendVerificationCode(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepository.GetOneByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user by id failed: %w", err)
	}

	code, expiresAt := s.newCode()
	if err := s.verificationRepository.Regenerate(ctx, userID, code, expiresAt); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("regenerate verification code failed: %w", err)
	}

	return s.emails.SendCode(ctx, CodeEmailInput{
		Kind:  EmailKindVerification,
		Email: user.Email,
		Name:  user.Name,
		Code:  code,
	})
}

func (s *userService) UpdateBasic(ctx context.Context, userID uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return nil, ErrNoUpdateFields
	}

	user, err := s.userRepository.UpdateBasic(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		if errors.Is(err, domain.ErrEmptyPatch) {
			return nil, ErrNoUpdateFields
		}
		return nil, fmt.Errorf("update user failed: %w", err)
	}

	return user, nil
}

// ChangePassword also logs the user out everywhere.
func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepository.GetOneByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user by id failed: %w", err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrCurrentPasswordIncorrect
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password failed: %w", err)
	}

	if err := s.userRepository.UpdatePassword(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, domain.ErrNoRowsAffected) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password failed: %w", err)
	}

	return s.revokeSessions(ctx, userID)
}

func (s *userService) InitEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error {
	user, err := s.userRepository.GetOneByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user by id failed: %w", err)
	}

	exists, err := s.userRepository.ExistsByEmail(ctx, newEmail)
	if err != nil {
		return fmt.Errorf("check email failed: %w", err)
	}
	if exists {
		return ErrUserAlreadyExist
	}

	code, expiresAt := s.newCode()
	if err := s.emailChangeRepository.Replace(ctx, &domain.EmailChangeRequest{
		UserID:       userID,
		CurrentEmail: user.Email,
		NewEmail:     newEmail,
		Code:         code,
		ExpiresAt:    expiresAt,
	}); err != nil {
		return fmt.Errorf("save email change request failed: %w", err)
	}

	return s.emails.SendCode(ctx, CodeEmailInput{
		Kind:  EmailKindChange,
		Email: newEmail,
		Name:  user.Name,
		Code:  code,
	})
}

func (s *userService) VerifyEmailChange(ctx context.Context, userID uuid.UUID, code string) error {
	valid, err := s.emailChangeRepository.IsCodeValid(ctx, userID, code, s.now())
	if err != nil {
		return fmt.Errorf("check email change code failed: %w", err)
	}
	if !valid {
		return ErrVerificationCodeInvalid
	}

	if _, err := s.emailChangeRepository.Apply(ctx, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEntry):
			return ErrUserAlreadyExist
		case errors.Is(err, domain.ErrNotFound):
			return ErrVerificationCodeInvalid
		}
		return fmt.Errorf("apply email change failed: %w", err)
	}

	if err := s.authState.Delete(ctx, userID); err != nil {
		logger.Warn("auth state cache invalidation failed", zap.String("userid", userID.String()), zap.Error(err))
	}

	return nil
}
