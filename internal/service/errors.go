package service

import "errors"

var (
	ErrUserAlreadyExist         = errors.New("user already exist")
	ErrUserNotFound             = errors.New("user not found")
	ErrEmailNotExist            = errors.New("email does not exist")
	ErrPasswordNotMatch         = errors.New("password does not match")
	ErrEmailNotVerified         = errors.New("email is not verified")
	ErrVerificationCodeInvalid  = errors.New("verification code is invalid or expired")
	ErrNoUpdateFields           = errors.New("no fields to update")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrPasswordResetNotVerified = errors.New("password reset is not verified")

	ErrEmailTransport = errors.New("email transport unavailable")
	ErrEmailDelivery  = errors.New("email delivery failed")

	ErrAuthRequired = errors.New("authentication required")
	ErrTokenExpired = errors.New("token missing or expired")
)

var ErrInvalidTimeSlot = errors.New("time slot must start before it ends")
