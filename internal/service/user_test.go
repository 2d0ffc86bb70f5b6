package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/waw-schedule/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUpVerified(t *testing.T, f *fixture, email string) *domain.User {
	t.Helper()
	ctx := context.Background()

	user, err := f.users.SignUp(ctx, SignUpInput{Name: "Cristiano Ronaldo", Email: email, Password: "Password123"})
	require.NoError(t, err)
	require.NoError(t, f.users.VerifyEmail(ctx, user.ID, "AB12CD"))
	return user
}

func TestUserService_SignUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.SignUp(ctx, SignUpInput{Name: "Cristiano Ronaldo", Email: "ronaldo@mail.com", Password: "Password123"})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleList{domain.RoleUser}, user.Role)
	assert.NotEqual(t, "Password123", user.PasswordHash)

	verification, ok := f.store.Verification(user.ID)
	require.True(t, ok)
	assert.False(t, verification.Verified)
	assert.Equal(t, "AB12CD", verification.Code)
	assert.WithinDuration(t, f.clock.Now().Add(time.Minute), verification.ExpiresAt, time.Second)

	sent := f.emails.last()
	assert.Equal(t, EmailKindVerification, sent.Kind)
	assert.Equal(t, "ronaldo@mail.com", sent.Email)
	assert.Equal(t, "AB12CD", sent.Code)

	_, err = f.users.SignUp(ctx, SignUpInput{Name: "Other", Email: "ronaldo@mail.com", Password: "Password123"})
	assert.ErrorIs(t, err, ErrUserAlreadyExist)
}

func TestUserService_SignUpEmailFailureKeepsUser(t *testing.T) {
	f := newFixture(t)
	f.emails.err = ErrEmailTransport

	user, err := f.users.SignUp(context.Background(), SignUpInput{Name: "N", Email: "n@mail.com", Password: "Password123"})
	assert.ErrorIs(t, err, ErrEmailTransport)
	require.NotNil(t, user)

	users, err := f.users.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_SignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.SignUp(ctx, SignUpInput{Name: "Cristiano Ronaldo", Email: "ronaldo@mail.com", Password: "Password123"})
	require.NoError(t, err)

	_, err = f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, err = f.users.SignIn(ctx, "ghost@mail.com", "Password123")
	assert.ErrorIs(t, err, ErrEmailNotExist)

	_, err = f.users.SignIn(ctx, "ronaldo@mail.com", "wrong-password")
	assert.ErrorIs(t, err, ErrPasswordNotMatch)

	require.NoError(t, f.users.VerifyEmail(ctx, user.ID, "AB12CD"))

	tokens, err := f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, tokens.AccessTTL)

	claims, err := f.tokens.Parse(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, []string{domain.RoleUser}, claims.Role)
}

func TestUserService_VerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.SignUp(ctx, SignUpInput{Name: "N", Email: "n@mail.com", Password: "Password123"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.users.VerifyEmail(ctx, user.ID, "ZZZZZZ"), ErrVerificationCodeInvalid)

	f.clock.Advance(2 * time.Minute)
	assert.ErrorIs(t, f.users.VerifyEmail(ctx, user.ID, "AB12CD"), ErrVerificationCodeInvalid)

	require.NoError(t, f.users.ResendVerificationCode(ctx, user.ID))
	require.NoError(t, f.users.VerifyEmail(ctx, user.ID, "AB12CD"))

	verification, _ := f.store.Verification(user.ID)
	assert.True(t, verification.Verified)
}

func TestUserService_ResendReplacesCode(t *testing.T) {
	f := newFixtureWithCodes(t, &codeSequence{codes: []string{"FIRST1", "SECND2", "THIRD3"}})
	ctx := context.Background()

	user, err := f.users.SignUp(ctx, SignUpInput{Name: "N", Email: "n@mail.com", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, "FIRST1", f.emails.last().Code)

	require.NoError(t, f.users.ResendVerificationCode(ctx, user.ID))
	assert.Equal(t, "SECND2", f.emails.last().Code)
	require.NoError(t, f.users.ResendVerificationCode(ctx, user.ID))
	assert.Equal(t, "THIRD3", f.emails.last().Code)

	assert.ErrorIs(t, f.users.VerifyEmail(ctx, user.ID, "FIRST1"), ErrVerificationCodeInvalid)
	assert.ErrorIs(t, f.users.VerifyEmail(ctx, user.ID, "SECND2"), ErrVerificationCodeInvalid)
	require.NoError(t, f.users.VerifyEmail(ctx, user.ID, "THIRD3"))

	verification, _ := f.store.Verification(user.ID)
	assert.True(t, verification.Verified)
}

func TestUserService_ResendUnknownUser(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.users.ResendVerificationCode(context.Background(), uuid.New()), ErrUserNotFound)
}

func TestUserService_UpdateBasic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	_, err := f.users.UpdateBasic(ctx, user.ID, domain.UserPatch{})
	assert.ErrorIs(t, err, ErrNoUpdateFields)

	name := "CR7"
	updated, err := f.users.UpdateBasic(ctx, user.ID, domain.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "CR7", updated.Name)
	assert.Equal(t, "ronaldo@mail.com", updated.Email)

	_, err = f.users.UpdateBasic(ctx, uuid.New(), domain.UserPatch{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	assert.ErrorIs(t, f.users.ChangePassword(ctx, user.ID, "wrong", "NewPassword1"), ErrCurrentPasswordIncorrect)

	tokens, err := f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	require.NoError(t, err)

	f.clock.Advance(5 * time.Second)
	require.NoError(t, f.users.ChangePassword(ctx, user.ID, "Password123", "NewPassword1"))

	_, err = f.sessions.Validate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	assert.ErrorIs(t, err, ErrPasswordNotMatch)
	_, err = f.users.SignIn(ctx, "ronaldo@mail.com", "NewPassword1")
	assert.NoError(t, err)
}

func TestUserService_EmailChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")
	signUpVerified(t, f, "messi@mail.com")

	assert.ErrorIs(t, f.users.InitEmailChange(ctx, user.ID, "messi@mail.com"), ErrUserAlreadyExist)

	require.NoError(t, f.users.InitEmailChange(ctx, user.ID, "cr7@mail.com"))
	sent := f.emails.last()
	assert.Equal(t, EmailKindChange, sent.Kind)
	assert.Equal(t, "cr7@mail.com", sent.Email)

	request, ok := f.store.EmailChange(user.ID)
	require.True(t, ok)
	assert.Equal(t, "ronaldo@mail.com", request.CurrentEmail)

	assert.ErrorIs(t, f.users.VerifyEmailChange(ctx, user.ID, "WRONG1"), ErrVerificationCodeInvalid)
	require.NoError(t, f.users.VerifyEmailChange(ctx, user.ID, "AB12CD"))

	_, err := f.users.SignIn(ctx, "cr7@mail.com", "Password123")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.users.VerifyEmailChange(ctx, user.ID, "AB12CD"), ErrVerificationCodeInvalid)
}

func TestUserService_EmailChangeLostRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	require.NoError(t, f.users.InitEmailChange(ctx, user.ID, "taken@mail.com"))
	signUpVerified(t, f, "taken@mail.com")

	assert.ErrorIs(t, f.users.VerifyEmailChange(ctx, user.ID, "AB12CD"), ErrUserAlreadyExist)
}

func TestUserService_PasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	assert.ErrorIs(t, f.users.ApplyPasswordReset(ctx, "ronaldo@mail.com", "NewPassword1"), ErrPasswordResetNotVerified)

	require.NoError(t, f.users.InitPasswordReset(ctx, "ronaldo@mail.com"))
	assert.Equal(t, EmailKindPasswordReset, f.emails.last().Kind)

	request, ok := f.store.PasswordReset(user.ID)
	require.True(t, ok)
	assert.Equal(t, domain.PasswordResetPending, request.Status)

	assert.ErrorIs(t, f.users.ApplyPasswordReset(ctx, "ronaldo@mail.com", "NewPassword1"), ErrPasswordResetNotVerified)
	assert.ErrorIs(t, f.users.VerifyPasswordReset(ctx, "ronaldo@mail.com", "WRONG1"), ErrVerificationCodeInvalid)
	require.NoError(t, f.users.VerifyPasswordReset(ctx, "ronaldo@mail.com", "AB12CD"))

	tokens, err := f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	require.NoError(t, err)
	f.clock.Advance(5 * time.Second)

	require.NoError(t, f.users.ApplyPasswordReset(ctx, "ronaldo@mail.com", "NewPassword1"))
	assert.ErrorIs(t, f.users.ApplyPasswordReset(ctx, "ronaldo@mail.com", "Another1"), ErrPasswordResetNotVerified)

	_, err = f.sessions.Validate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = f.users.SignIn(ctx, "ronaldo@mail.com", "NewPassword1")
	assert.NoError(t, err)
}

func TestUserService_PasswordResetExpiredCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signUpVerified(t, f, "ronaldo@mail.com")

	require.NoError(t, f.users.InitPasswordReset(ctx, "ronaldo@mail.com"))
	f.clock.Advance(61 * time.Second)
	assert.ErrorIs(t, f.users.VerifyPasswordReset(ctx, "ronaldo@mail.com", "AB12CD"), ErrVerificationCodeInvalid)
}

func TestUserService_PasswordResetUnknownEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("masked", func(t *testing.T) {
		f := newFixture(t)
		sentBefore := len(f.emails.sent)

		assert.NoError(t, f.users.InitPasswordReset(ctx, "ghost@mail.com"))
		assert.Len(t, f.emails.sent, sentBefore)
		assert.ErrorIs(t, f.users.VerifyPasswordReset(ctx, "ghost@mail.com", "AB12CD"), ErrVerificationCodeInvalid)
		assert.ErrorIs(t, f.users.ApplyPasswordReset(ctx, "ghost@mail.com", "NewPassword1"), ErrPasswordResetNotVerified)
	})

	t.Run("unmasked", func(t *testing.T) {
		f := newFixture(t)
		f.users.authConfig.MaskUnknownResetEmail = false

		assert.ErrorIs(t, f.users.InitPasswordReset(ctx, "ghost@mail.com"), ErrEmailNotExist)
		assert.ErrorIs(t, f.users.VerifyPasswordReset(ctx, "ghost@mail.com", "AB12CD"), ErrEmailNotExist)
		assert.ErrorIs(t, f.users.ApplyPasswordReset(ctx, "ghost@mail.com", "NewPassword1"), ErrEmailNotExist)
	})
}

func TestUserService_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	assert.True(t, errors.Is(f.users.Logout(ctx, uuid.New()), ErrUserNotFound))
	require.NoError(t, f.users.Logout(ctx, user.ID))

	stored, err := f.store.Repositories().Users.GetOneByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogoutAt)
	assert.True(t, f.clock.Now().Equal(*stored.LastLogoutAt))
}
