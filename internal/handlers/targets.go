package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutripath-backend/internal/services"
)

type TargetsHandler struct {
	targetsService services.TargetsService
}

func NewTargetsHandler(targetsService services.TargetsService) *TargetsHandler {
	return &TargetsHandler{targetsService: targetsService}
}

func (th *TargetsHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targets, err := th.targetsService.Get(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "targets_load_failed", err)
		return
	}
	RespondOK(c, gin.H{"targets": targets})
}

func (th *TargetsHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		ProteinG    *float64 `json:"protein_g" binding:"omitempty,gt=0"`
		CalorieKcal *float64 `json:"calorie_kcal" binding:"omitempty,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	targets, err := th.targetsService.Update(c.Request.Context(), userID, req.ProteinG, req.CalorieKcal)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "targets_update_failed", err)
		return
	}
	RespondOK(c, gin.H{"targets": targets})
}
