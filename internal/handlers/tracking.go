package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutripath-backend/internal/services"
)

type TrackingHandler struct {
	trackingService services.TrackingService
}

func NewTrackingHandler(trackingService services.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

func (th *TrackingHandler) LogMeal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.LogMealInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	meal, err := th.trackingService.LogMeal(c.Request.Context(), userID, req)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "meal_log_failed", err)
		return
	}
	RespondOK(c, gin.H{"meal": meal})
}

func (th *TrackingHandler) AddWeighIn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.AddWeighInInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	weighIn, err := th.trackingService.AddWeighIn(c.Request.Context(), userID, req)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "weigh_in_failed", err)
		return
	}
	RespondOK(c, gin.H{"weigh_in": weighIn})
}

func (th *TrackingHandler) CheckHabit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	// Body is optional; the habit key rides on the path.
	_ = c.ShouldBindJSON(&req)

	check, err := th.trackingService.CheckHabit(c.Request.Context(), userID, services.CheckHabitInput{
		HabitKey: c.Param("key"),
		Note:     req.Note,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "habit_check_failed", err)
		return
	}
	RespondOK(c, gin.H{"habit_check": check})
}

func (th *TrackingHandler) MarkEducationRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	read, err := th.trackingService.MarkEducationRead(c.Request.Context(), userID, services.MarkEducationReadInput{
		Slug: c.Param("slug"),
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "education_read_failed", err)
		return
	}
	RespondOK(c, gin.H{"education_read": read})
}
