package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/internal/services"
	"github.com/skylark/spectra-backend/pkg/response"
)

type CandidateHandler struct {
	candidates *services.CandidateService
}

func NewCandidateHandler(db *gorm.DB) *CandidateHandler {
	return &CandidateHandler{candidates: services.NewCandidateService(db)}
}

type createCandidateRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// Create registers a candidate
// POST /api/candidates
func (h *CandidateHandler) Create(c *gin.Context) {
	var req createCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and a valid email are required")
		return
	}

	candidate, err := h.candidates.Create(uuid.NewString(), req.Name, req.Email)
	if err != nil {
		response.ServerError(c, "failed to create candidate")
		return
	}
	response.Created(c, candidate)
}

// List returns all candidates for the dashboard
// GET /api/candidates
func (h *CandidateHandler) List(c *gin.Context) {
	candidates, err := h.candidates.List()
	if err != nil {
		response.ServerError(c, "failed to list candidates")
		return
	}
	response.Success(c, candidates)
}

// Get returns one candidate with the current interview and a
// display-ready feedback record. Feedback is always present: stored
// JSON when available, a neutral fallback otherwise.
// GET /api/candidates/:id
func (h *CandidateHandler) Get(c *gin.Context) {
	record, err := h.candidates.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCandidateNotFound) {
			response.NotFound(c, "candidate not found")
			return
		}
		response.ServerError(c, "failed to load candidate")
		return
	}

	response.Success(c, gin.H{
		"candidate": record.Candidate,
		"interview": record.Interview,
		"feedback":  models.ParseFeedback(record),
	})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus transitions the candidate lifecycle. Restarting a
// completed interview is rejected with 409.
// PATCH /api/candidates/:id/status
func (h *CandidateHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status is required")
		return
	}

	err := h.candidates.UpdateStatus(c.Param("id"), req.Status)
	switch {
	case err == nil:
		response.Success(c, gin.H{"status": req.Status})
	case errors.Is(err, services.ErrCandidateNotFound):
		response.NotFound(c, "candidate not found")
	case errors.Is(err, services.ErrInvalidStatus):
		response.BadRequest(c, "unknown status value")
	case errors.Is(err, services.ErrInterviewCompleted):
		response.Conflict(c, "interview already completed, restart is not allowed")
	default:
		response.ServerError(c, "failed to update status")
	}
}
