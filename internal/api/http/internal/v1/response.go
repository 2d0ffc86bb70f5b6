package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type messageResponse struct {
	Message string `json:"message"`
} // @name MessageResponse

const (
	logoutSuccessMessage        = "User successfully logged out!"
	emailVerifySuccessMessage   = "Email Successfully Verified!"
	emailCodeResentMessage      = "New verification code have been sent to your registered email!"
	emailChangeInitMessage      = "Verification code has been sent to the new email!"
	passwordResetInitMessage    = "If the email is registered, a password reset code has been sent to it!"
	passwordResetSuccessMessage = "User updated successfully!"
	availabilitySavedMessage    = "Availability created successfully"
)

func errorResponse(c *gin.Context, code ErrorCode, err error) {
	status, body := getErrorStruct(code)

	fields := []zap.Field{
		zap.String("request_id", requestID(c)),
		zap.String("error_code", string(body.ErrorCode)),
		zap.Int("status", status),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if status >= http.StatusInternalServerError {
		logger.Error(string(body.ErrorMessage), fields...)
	} else {
		logger.Warn(string(body.ErrorMessage), fields...)
	}

	c.AbortWithStatusJSON(status, body)
}

// emailErrorResponse tells a missing transport apart from a failed send.
func emailErrorResponse(c *gin.Context, err error, fallback ErrorCode) {
	switch {
	case errors.Is(err, service.ErrEmailTransport):
		errorResponse(c, EmailTransporterFailureCode, err)
	case errors.Is(err, service.ErrEmailDelivery):
		errorResponse(c, EmailFailureCode, err)
	default:
		errorResponse(c, fallback, err)
	}
}

func validationErrorResponse(c *gin.Context, err error) {
	response := ValidationErrorStruct{
		ErrorCode:    ValidationErrorCode,
		ErrorMessage: "Validation error",
		Errors:       []ValidationError{},
	}

	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		out := make([]ValidationError, len(verr))
		for i, ferr := range verr {
			out[i] = ValidationError{ferr.Field(), msgForTag(ferr.Tag(), ferr.Param())}
		}
		response.Errors = out
	} else if errors.Is(err, service.ErrInvalidTimeSlot) {
		response.Errors = []ValidationError{{"timeSlots", err.Error()}}
	} else {
		response.ErrorMessage = "Malformed request body"
	}

	logger.Warn("request validation failed",
		zap.String("request_id", requestID(c)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)

	c.AbortWithStatusJSON(http.StatusBadRequest, response)
}

func msgForTag(tag string, value string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Must be at least %v characters long", value)
	case "max":
		return fmt.Sprintf("Must be at most %v characters long", value)
	case "hhmm":
		return "Time must be in HH:MM format"
	case "weekday":
		return "Must be a lowercase English weekday"
	case "uuid":
		return "Must be a valid UUID"
	}
	return tag
}
