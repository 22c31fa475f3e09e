package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/skylark/spectra-backend/internal/models"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	var interviewing int64
	models.GetDB().Model(&models.Candidate{}).
		Where("status = ?", models.StatusInterviewing).
		Count(&interviewing)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "spectra",
		"components": gin.H{
			"database":          dbStatus,
			"active_interviews": interviewing,
		},
	})
}
