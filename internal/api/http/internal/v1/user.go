package v1

import (
	"errors"
	"net/http"

	"github.com/waw-schedule/backend/internal/authz"
	"github.com/waw-schedule/backend/internal/domain"
	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) initUsersRoutes(public, protected gin.IRoutes) {
	public.POST("/signup", h.signUp)
	public.POST("/login", h.login)
	public.POST("/verifyEmail", h.verifyEmail)
	public.POST("/verifyEmailReset", h.verifyEmailReset)
	public.POST("/resetPasswordInit", h.resetPasswordInit)
	public.PATCH("/resetPasswordVerify", h.resetPasswordVerify)
	public.PATCH("/changePassword", h.changePassword)

	protected.GET("/users", h.getUsers)
	protected.POST("/logout", h.logout)
	protected.PATCH("/userBasicUpdate", h.userBasicUpdate)
	protected.PATCH("/userPasswordUpdate", h.userPasswordUpdate)
	protected.POST("/userEmailUpdateInit", h.userEmailUpdateInit)
	protected.PATCH("/userEmailUpdateVerify", h.userEmailUpdateVerify)
}

func logHandler(c *gin.Context, handler string, fields ...zap.Field) {
	logger.Info(handler, append([]zap.Field{
		zap.String("handler", handler),
		zap.String("request_id", requestID(c)),
	}, fields...)...)
}

type userResponse struct {
	UserID uuid.UUID `json:"userid"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   []string  `json:"role"`
} // @name UserResponse

func newUserResponse(u *domain.User) userResponse {
	role := []string(u.Role)
	if role == nil {
		role = []string{}
	}
	return userResponse{UserID: u.ID, Name: u.Name, Email: u.Email, Role: role}
}

type signUpInput struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// @Summary Sign up
// @Tags Users
// @Description Creates an account and mails an email verification code
// @ModuleID signUp
// @Accept  json
// @Produce  json
// @Param input body signUpInput true "sign up info"
// @Success 201 {object} userResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 409 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /signup [post]
func (h *Handler) signUp(c *gin.Context) {
	var input signUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "signUp", zap.String("email", input.Email))

	user, err := h.services.Users.SignUp(c.Request.Context(), service.SignUpInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExist) {
			errorResponse(c, DuplicateEmailCode, err)
			return
		}
		emailErrorResponse(c, err, SignupServerErrorCode)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

// @Summary List users
// @Tags Users
// @ModuleID getUsers
// @Produce  json
// @Success 200 {array} userResponse
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /users [get]
func (h *Handler) getUsers(c *gin.Context) {
	logHandler(c, "getUsers")

	users, err := h.services.Users.GetAll(c.Request.Context())
	if err != nil {
		errorResponse(c, FetchAllUsersCode, err)
		return
	}

	response := make([]userResponse, 0, len(users))
	for i := range users {
		response = append(response, newUserResponse(&users[i]))
	}

	c.JSON(http.StatusOK, response)
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
} // @name LoginResponse

// @Summary Log in
// @Tags Users
// @Description Returns an access token and sets it as the access_token cookie
// @ModuleID login
// @Accept  json
// @Produce  json
// @Param input body loginInput true "credentials"
// @Success 200 {object} loginResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "login", zap.String("email", input.Email))

	tokens, err := h.services.Users.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotExist):
			errorResponse(c, EmailNotExistCode, err)
		case errors.Is(err, service.ErrPasswordNotMatch):
			errorResponse(c, PasswordNotMatchCode, err)
		case errors.Is(err, service.ErrEmailNotVerified):
			errorResponse(c, EmailNotVerifiedCode, err)
		default:
			errorResponse(c, LoginServerErrorCode, err)
		}
		return
	}

	h.setAccessTokenCookie(c, tokens.AccessToken, int(tokens.AccessTTL.Seconds()))
	c.JSON(http.StatusOK, loginResponse{AccessToken: tokens.AccessToken})
}

// @Summary Log out
// @Tags Users
// @Description Revokes every token issued before now and clears the cookie
// @ModuleID logout
// @Produce  json
// @Success 200 {object} messageResponse
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /logout [post]
func (h *Handler) logout(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, AuthRequiredCode, err)
		return
	}
	logHandler(c, "logout", zap.String("userid", userID.String()))

	if err := h.services.Users.Logout(c.Request.Context(), userID); err != nil {
		errorResponse(c, LogoutErrorCode, err)
		return
	}

	h.clearAccessTokenCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: logoutSuccessMessage})
}

type verifyEmailInput struct {
	UserID           string `json:"userid" binding:"required,uuid"`
	VerificationCode string `json:"verificationCode" binding:"required"`
}

// @Summary Verify email
// @Tags Users
// @ModuleID verifyEmail
// @Accept  json
// @Produce  json
// @Param input body verifyEmailInput true "verification code"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /verifyEmail [post]
func (h *Handler) verifyEmail(c *gin.Context) {
	var input verifyEmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "verifyEmail", zap.String("userid", input.UserID))

	if err := h.services.Users.VerifyEmail(c.Request.Context(), uuid.MustParse(input.UserID), input.VerificationCode); err != nil {
		if errors.Is(err, service.ErrVerificationCodeInvalid) {
			errorResponse(c, EmailVerifyFailureCode, err)
			return
		}
		errorResponse(c, SignupServerErrorCode, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: emailVerifySuccessMessage})
}

type verifyEmailResetInput struct {
	UserID string `json:"userid" binding:"required,uuid"`
}

// @Summary Resend email verification code
// @Tags Users
// @Description Replaces the pending code, the previous one stops working
// @ModuleID verifyEmailReset
// @Accept  json
// @Produce  json
// @Param input body verifyEmailResetInput true "user id"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /verifyEmailReset [post]
func (h *Handler) verifyEmailReset(c *gin.Context) {
	var input verifyEmailResetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "verifyEmailReset", zap.String("userid", input.UserID))

	if err := h.services.Users.ResendVerificationCode(c.Request.Context(), uuid.MustParse(input.UserID)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			errorResponse(c, ResetEmailNotExistCode, err)
			return
		}
		emailErrorResponse(c, err, SignupServerErrorCode)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: emailCodeResentMessage})
}

type userBasicUpdateInput struct {
	Name *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Role []string `json:"role" binding:"omitempty,min=1,dive,oneof=user admin"`
}

// @Summary Update profile
// @Tags Users
// @Description Updates only the fields present in the body. Changing role requires admin.
// @ModuleID userBasicUpdate
// @Accept  json
// @Produce  json
// @Param input body userBasicUpdateInput true "fields to update"
// @Success 200 {object} userResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 403 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /userBasicUpdate [patch]
func (h *Handler) userBasicUpdate(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, AuthRequiredCode, err)
		return
	}

	var input userBasicUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "userBasicUpdate", zap.String("userid", userID.String()))

	patch := domain.UserPatch{Name: input.Name}
	if len(input.Role) > 0 {
		claims, _ := getClaims(c)
		allowed, err := h.enforcer.Allowed(claims.Role, authz.ObjectUserRole, c.Request.Method)
		if err != nil {
			errorResponse(c, UpdateServerErrorCode, err)
			return
		}
		if !allowed {
			errorResponse(c, ForbiddenCode, nil)
			return
		}
		patch.Role = domain.RoleList(input.Role)
	}

	user, err := h.services.Users.UpdateBasic(c.Request.Context(), userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoUpdateFields):
			errorResponse(c, NoUpdateFieldsCode, err)
		case errors.Is(err, service.ErrUserNotFound):
			errorResponse(c, FetchUserByIDCode, err)
		default:
			errorResponse(c, UpdateServerErrorCode, err)
		}
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

type userPasswordUpdateInput struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// @Summary Change password
// @Tags Users
// @Description Checks the current password, stores the new one and logs out every session
// @ModuleID userPasswordUpdate
// @Accept  json
// @Produce  json
// @Param input body userPasswordUpdateInput true "current and new password"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /userPasswordUpdate [patch]
func (h *Handler) userPasswordUpdate(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, AuthRequiredCode, err)
		return
	}

	var input userPasswordUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "userPasswordUpdate", zap.String("userid", userID.String()))

	if err := h.services.Users.ChangePassword(c.Request.Context(), userID, input.Password, input.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrCurrentPasswordIncorrect):
			errorResponse(c, CurrentPasswordIncorrectCode, err)
		case errors.Is(err, service.ErrUserNotFound):
			errorResponse(c, FetchUserByIDCode, err)
		default:
			errorResponse(c, UpdateServerErrorCode, err)
		}
		return
	}

	h.clearAccessTokenCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: logoutSuccessMessage})
}

type userEmailUpdateInitInput struct {
	NewEmail string `json:"new_email" binding:"required,email,max=254"`
}

// @Summary Start email change
// @Tags Users
// @Description Mails a confirmation code to the new address
// @ModuleID userEmailUpdateInit
// @Accept  json
// @Produce  json
// @Param input body userEmailUpdateInitInput true "new email"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 409 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /userEmailUpdateInit [post]
func (h *Handler) userEmailUpdateInit(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, AuthRequiredCode, err)
		return
	}

	var input userEmailUpdateInitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "userEmailUpdateInit", zap.String("userid", userID.String()))

	if err := h.services.Users.InitEmailChange(c.Request.Context(), userID, input.NewEmail); err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExist):
			errorResponse(c, DuplicateEmailCode, err)
		case errors.Is(err, service.ErrUserNotFound):
			errorResponse(c, FetchUserByIDCode, err)
		default:
			emailErrorResponse(c, err, UpdateServerErrorCode)
		}
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: emailChangeInitMessage})
}

type userEmailUpdateVerifyInput struct {
	VerificationCode string `json:"verificationCode" binding:"required"`
}

// @Summary Confirm email change
// @Tags Users
// @ModuleID userEmailUpdateVerify
// @Accept  json
// @Produce  json
// @Param input body userEmailUpdateVerifyInput true "verification code"
// @Success 200 {object} messageResponse
// @Failure 401 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /userEmailUpdateVerify [patch]
func (h *Handler) userEmailUpdateVerify(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, AuthRequiredCode, err)
		return
	}

	var input userEmailUpdateVerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "userEmailUpdateVerify", zap.String("userid", userID.String()))

	if err := h.services.Users.VerifyEmailChange(c.Request.Context(), userID, input.VerificationCode); err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationCodeInvalid):
			errorResponse(c, EmailVerifyFailureCode, err)
		case errors.Is(err, service.ErrUserAlreadyExist):
			errorResponse(c, DuplicateEmailCode, err)
		default:
			errorResponse(c, UpdateServerErrorCode, err)
		}
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: emailVerifySuccessMessage})
}

type resetPasswordInitInput struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary Start password reset
// @Tags Password reset
// @ModuleID resetPasswordInit
// @Accept  json
// @Produce  json
// @Param input body resetPasswordInitInput true "account email"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /resetPasswordInit [post]
func (h *Handler) resetPasswordInit(c *gin.Context) {
	var input resetPasswordInitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "resetPasswordInit", zap.String("email", input.Email))

	if err := h.services.Users.InitPasswordReset(c.Request.Context(), input.Email); err != nil {
		if errors.Is(err, service.ErrEmailNotExist) {
			errorResponse(c, ResetEmailNotExistCode, err)
			return
		}
		emailErrorResponse(c, err, UpdateServerErrorCode)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: passwordResetInitMessage})
}

type resetPasswordVerifyInput struct {
	Email            string `json:"email" binding:"required,email"`
	VerificationCode string `json:"verificationCode" binding:"required"`
}

// @Summary Verify password reset code
// @Tags Password reset
// @ModuleID resetPasswordVerify
// @Accept  json
// @Produce  json
// @Param input body resetPasswordVerifyInput true "email and code"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /resetPasswordVerify [patch]
func (h *Handler) resetPasswordVerify(c *gin.Context) {
	var input resetPasswordVerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "resetPasswordVerify", zap.String("email", input.Email))

	if err := h.services.Users.VerifyPasswordReset(c.Request.Context(), input.Email, input.VerificationCode); err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationCodeInvalid):
			errorResponse(c, EmailVerifyFailureCode, err)
		case errors.Is(err, service.ErrEmailNotExist):
			errorResponse(c, ResetEmailNotExistCode, err)
		default:
			errorResponse(c, UpdateServerErrorCode, err)
		}
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: emailVerifySuccessMessage})
}

type changePasswordInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// @Summary Set new password after reset
// @Tags Password reset
// @Description Needs a verified reset request, which is consumed
// @ModuleID changePassword
// @Accept  json
// @Produce  json
// @Param input body changePasswordInput true "email and new password"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /changePassword [patch]
func (h *Handler) changePassword(c *gin.Context) {
	var input changePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "changePassword", zap.String("email", input.Email))

	if err := h.services.Users.ApplyPasswordReset(c.Request.Context(), input.Email, input.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordResetNotVerified):
			errorResponse(c, ResetNotRequestedCode, err)
		case errors.Is(err, service.ErrEmailNotExist):
			errorResponse(c, ResetEmailNotExistCode, err)
		default:
			errorResponse(c, UpdateServerErrorCode, err)
		}
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: passwordResetSuccessMessage})
}
