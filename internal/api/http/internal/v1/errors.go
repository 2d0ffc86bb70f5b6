package v1

import "net/http"

// Errors
const (
	UnknownErrorCode    = "UNKNOWN"
	UnknownErrorMessage = "unknown error"

	SignupServerErrorCode       = "AUTH-100.1"
	DuplicateEmailCode          = "AUTH-100.2"
	EmailFailureCode            = "AUTH-100.3"
	EmailTransporterFailureCode = "AUTH-100.4"

	LoginServerErrorCode   = "AUTH-101.1"
	EmailNotExistCode      = "AUTH-101.2"
	PasswordNotMatchCode   = "AUTH-101.3"
	LogoutErrorCode        = "AUTH-101.4"
	EmailVerifyFailureCode = "AUTH-101.5"
	EmailNotVerifiedCode   = "AUTH-101.6"

	FetchAllUsersCode            = "AUTH-000.1"
	FetchUserByIDCode            = "AUTH-000.3"
	AuthRequiredCode             = "AUTH-000.4"
	TokenExpiredCode             = "AUTH-000.5"
	ResetEmailNotExistCode       = "AUTH-000.6.1"
	ResetNotRequestedCode        = "AUTH-000.6.2"
	UpdateServerErrorCode        = "AUTH-000.7.1"
	NoUpdateFieldsCode           = "AUTH-000.7.2"
	CurrentPasswordIncorrectCode = "AUTH-000.7.3"
	ValidationErrorCode          = "AUTH-000.8"
	SessionCheckFailureCode      = "AUTH-000.9"
	ForbiddenCode                = "AUTH-000.10"

	AvailabilityServerErrorCode = "AVAILABILITY-100.1"
)

type ErrorCode string
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"errorCode"`
	ErrorMessage `json:"errorMessage"`
} // @name ErrorStruct

type ValidationErrorStruct struct {
	ErrorCode    string            `json:"errorCode"`
	ErrorMessage string            `json:"errorMessage"`
	Errors       []ValidationError `json:"validationErrors"`
} // @name ValidationErrorStruct

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

type errorDefinition struct {
	status  int
	message string
}

var errorDefinitions = map[ErrorCode]errorDefinition{
	SignupServerErrorCode:       {http.StatusInternalServerError, "Signup process failed due to a server error."},
	DuplicateEmailCode:          {http.StatusConflict, "Email already exists."},
	EmailFailureCode:            {http.StatusInternalServerError, "Sending code to email failed"},
	EmailTransporterFailureCode: {http.StatusInternalServerError, "Failed to initialize email transporter service. Please try again!"},

	LoginServerErrorCode:   {http.StatusInternalServerError, "Login process failed due to a server error."},
	EmailNotExistCode:      {http.StatusUnauthorized, "Wrong email and/or password provided!"},
	PasswordNotMatchCode:   {http.StatusUnauthorized, "Wrong email and/or password provided!"},
	LogoutErrorCode:        {http.StatusInternalServerError, "Unexpected error occured - failed to log out."},
	EmailVerifyFailureCode: {http.StatusUnauthorized, "Verification code is invalid/missing/expired"},
	EmailNotVerifiedCode:   {http.StatusUnauthorized, "Email is not verified yet! Try again after verification."},

	FetchAllUsersCode:            {http.StatusInternalServerError, "Failed to fetch all users."},
	FetchUserByIDCode:            {http.StatusBadRequest, "User with the specified userid does not exist!"},
	AuthRequiredCode:             {http.StatusUnauthorized, "Authentication required to access this route"},
	TokenExpiredCode:             {http.StatusUnauthorized, "Authentication failed: 'access_token' cookie missing or expired"},
	ResetEmailNotExistCode:       {http.StatusBadRequest, "Email does not exist in the system"},
	ResetNotRequestedCode:        {http.StatusUnauthorized, "Password Change is not verified"},
	UpdateServerErrorCode:        {http.StatusInternalServerError, "Update process failed due to server error"},
	NoUpdateFieldsCode:           {http.StatusBadRequest, "No valid fields provided for update"},
	CurrentPasswordIncorrectCode: {http.StatusBadRequest, "Current password is incorrect"},
	ValidationErrorCode:          {http.StatusBadRequest, "Validation error"},
	SessionCheckFailureCode:      {http.StatusInternalServerError, "Session check failed due to a server error."},
	ForbiddenCode:                {http.StatusForbidden, "You are not allowed to access this resource"},

	AvailabilityServerErrorCode: {http.StatusInternalServerError, "Failed to save availability due to a server error."},
}

func getErrorStruct(code ErrorCode) (int, *ErrorStruct) {
	def, ok := errorDefinitions[code]
	if !ok {
		return http.StatusInternalServerError, &ErrorStruct{
			ErrorCode:    UnknownErrorCode,
			ErrorMessage: UnknownErrorMessage,
		}
	}

	return def.status, &ErrorStruct{
		ErrorCode:    code,
		ErrorMessage: ErrorMessage(def.message),
	}
}
