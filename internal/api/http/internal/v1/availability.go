package v1

import (
	"errors"
	"net/http"

	"github.com/waw-schedule/backend/internal/authz"
	"github.com/waw-schedule/backend/internal/domain"
	"github.com/waw-schedule/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) initAvailabilityRoutes(protected gin.IRoutes) {
	protected.POST("/user/:userId/availability", h.createAvailability)
	protected.GET("/user/:userId/availability", h.getAvailability)
}

type timeSlotInput struct {
	DayOfWeek string `json:"dayOfWeek" binding:"required,weekday"`
	StartTime string `json:"startTime" binding:"required,hhmm"`
	EndTime   string `json:"endTime" binding:"required,hhmm"`
}

type availabilityInput struct {
	TimeSlots []timeSlotInput `json:"timeSlots" binding:"required,min=1,dive"`
}

type availabilityResponse struct {
	TimeSlots []domain.TimeSlot `json:"timeSlots"`
} // @name AvailabilityResponse

// availabilityTarget resolves :userId and checks the caller may manage it.
func (h *Handler) availabilityTarget(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		errorResponse(c, FetchUserByIDCode, err)
		return uuid.Nil, false
	}

	if !h.canManageUser(c, userID, authz.ObjectAnyAvailability) {
		errorResponse(c, ForbiddenCode, nil)
		return uuid.Nil, false
	}

	return userID, true
}

// @Summary Set weekly availability
// @Tags Availability
// @Description Replaces all availability slots of the user
// @ModuleID createAvailability
// @Accept  json
// @Produce  json
// @Param userId path string true "user id"
// @Param input body availabilityInput true "weekly time slots"
// @Success 200 {object} messageResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 403 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /user/{userId}/availability [post]
func (h *Handler) createAvailability(c *gin.Context) {
	userID, ok := h.availabilityTarget(c)
	if !ok {
		return
	}

	var input availabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}
	logHandler(c, "createAvailability", zap.String("userid", userID.String()), zap.Int("slots", len(input.TimeSlots)))

	slots := make([]domain.TimeSlot, len(input.TimeSlots))
	for i, s := range input.TimeSlots {
		slots[i] = domain.TimeSlot{UserID: userID, DayOfWeek: s.DayOfWeek, StartTime: s.StartTime, EndTime: s.EndTime}
	}

	if err := h.services.Availability.Replace(c.Request.Context(), userID, slots); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTimeSlot):
			validationErrorResponse(c, err)
		case errors.Is(err, service.ErrUserNotFound):
			errorResponse(c, FetchUserByIDCode, err)
		default:
			errorResponse(c, AvailabilityServerErrorCode, err)
		}
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: availabilitySavedMessage})
}

// @Summary Get weekly availability
// @Tags Availability
// @ModuleID getAvailability
// @Produce  json
// @Param userId path string true "user id"
// @Success 200 {object} availabilityResponse
// @Failure 401 {object} ErrorStruct
// @Failure 403 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Security CookieAuth
// @Router /user/{userId}/availability [get]
func (h *Handler) getAvailability(c *gin.Context) {
	userID, ok := h.availabilityTarget(c)
	if !ok {
		return
	}
	logHandler(c, "getAvailability", zap.String("userid", userID.String()))

	slots, err := h.services.Availability.Get(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, AvailabilityServerErrorCode, err)
		return
	}

	c.JSON(http.StatusOK, availabilityResponse{TimeSlots: slots})
}
