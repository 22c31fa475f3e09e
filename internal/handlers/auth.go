package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skylark/spectra-backend/internal/config"
	"github.com/skylark/spectra-backend/internal/middleware"
	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/internal/utils"
	"github.com/skylark/spectra-backend/pkg/response"
)

type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles dashboard user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	var user models.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		response.Unauthorized(c, "invalid username or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, h.cfg.JWT.ExpireHour)
	if err != nil {
		response.ServerError(c, "failed to issue token")
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login", now)

	response.Success(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// DashboardLogin trades the shared dashboard password for a token.
// Hiring managers without individual accounts use this entry point.
// POST /api/auth/dashboard
func (h *AuthHandler) DashboardLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "password is required")
		return
	}

	if h.cfg.Dashboard.Password == "" || req.Password != h.cfg.Dashboard.Password {
		response.Unauthorized(c, "invalid dashboard password")
		return
	}

	token, err := utils.GenerateToken(0, "dashboard", "viewer", h.cfg.JWT.ExpireHour)
	if err != nil {
		response.ServerError(c, "failed to issue token")
		return
	}
	response.Success(c, gin.H{"token": token})
}

// Me returns the account behind the presented token
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	username := middleware.GetUsername(c)
	userID := middleware.GetUserID(c)

	if userID == 0 {
		// Shared-password dashboard session.
		response.Success(c, gin.H{"username": username, "role": "viewer"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// CreateAdminIfNotExists seeds the default admin account on first boot.
func (h *AuthHandler) CreateAdminIfNotExists() error {
	var user models.User
	err := h.db.Where("username = ?", "admin").First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}
	return h.db.Create(&models.User{
		Username: "admin",
		Password: hash,
		Role:     "admin",
	}).Error
}
