package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutripath-backend/internal/services"
)

type JourneyHandler struct {
	journeyService services.JourneyService
}

func NewJourneyHandler(journeyService services.JourneyService) *JourneyHandler {
	return &JourneyHandler{journeyService: journeyService}
}

// GetJourney recomputes the whole journey on every call. Responses are
// marked uncacheable: stale progress is worse than the recompute cost.
func (jh *JourneyHandler) GetJourney(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	setNoCache(c)
	journey, err := jh.journeyService.GetJourney(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "journey_load_failed", err)
		return
	}
	RespondOK(c, journey)
}

func (jh *JourneyHandler) CompleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	setNoCache(c)
	journey, err := jh.journeyService.CompleteTask(c.Request.Context(), userID, c.Param("key"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "task_complete_failed", err)
		return
	}
	RespondOK(c, journey)
}

func setNoCache(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
