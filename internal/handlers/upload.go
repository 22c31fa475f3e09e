package handlers

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skylark/spectra-backend/internal/services"
	"github.com/skylark/spectra-backend/pkg/logger"
	"github.com/skylark/spectra-backend/pkg/response"
)

// 10 MB resume ceiling.
const maxCVSize = 10 << 20

// CVAnalyzer summarizes resume text. Satisfied by
// services.ScoringService.
type CVAnalyzer interface {
	AnalyzeCV(ctx context.Context, cvText string) (*services.CVAnalysis, error)
}

type UploadHandler struct {
	candidates *services.CandidateService
	analyzer   CVAnalyzer
}

func NewUploadHandler(db *gorm.DB, analyzer CVAnalyzer) *UploadHandler {
	return &UploadHandler{
		candidates: services.NewCandidateService(db),
		analyzer:   analyzer,
	}
}

// UploadCV accepts a PDF resume, extracts its text and stores the
// LLM summary on the candidate. Analysis failure is not fatal: the
// raw text is kept and the summary stays empty.
// POST /api/candidates/:id/cv
// POST /api/upload-cv (candidate id as a form field)
func (h *UploadHandler) UploadCV(c *gin.Context) {
	candidateID := c.Param("id")
	if candidateID == "" {
		candidateID = c.PostForm("candidate_id")
	}
	if candidateID == "" {
		candidateID = c.PostForm("candidateId")
	}
	if candidateID == "" {
		response.BadRequest(c, "candidate id is required")
		return
	}

	file, header, err := c.Request.FormFile("cv")
	if err != nil {
		response.BadRequest(c, "cv file is required")
		return
	}
	defer file.Close()

	if header.Size > maxCVSize {
		response.BadRequest(c, "cv file exceeds the 10MB limit")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		response.BadRequest(c, "only PDF resumes are accepted")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxCVSize))
	if err != nil {
		response.ServerError(c, "failed to read uploaded file")
		return
	}

	text, err := services.ExtractPDFText(data)
	if err != nil {
		response.BadRequest(c, "could not extract text from the PDF")
		return
	}

	summary := ""
	analysis, err := h.analyzer.AnalyzeCV(c.Request.Context(), text)
	if err != nil {
		logger.Warn().Err(err).Str("candidate_id", candidateID).Msg("CV analysis failed, storing raw text only")
	} else {
		summary = analysis.Summary
	}

	if err := h.candidates.UpdateCV(candidateID, text, summary); err != nil {
		if errors.Is(err, services.ErrCandidateNotFound) {
			response.NotFound(c, "candidate not found")
			return
		}
		response.ServerError(c, "failed to store CV")
		return
	}

	response.Success(c, gin.H{
		"chars_extracted": len(text),
		"summarized":      summary != "",
	})
}
