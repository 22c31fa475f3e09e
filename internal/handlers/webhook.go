package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skylark/spectra-backend/internal/services"
	"github.com/skylark/spectra-backend/internal/services/webhook"
	"github.com/skylark/spectra-backend/pkg/logger"
	"github.com/skylark/spectra-backend/pkg/response"
)

// WebhookHandler receives post-call deliveries from the voice
// provider. The response is the raw acknowledgement shape the provider
// expects, not the dashboard envelope.
type WebhookHandler struct {
	pipeline *webhook.Service
}

func NewWebhookHandler(db *gorm.DB, scorer webhook.Scorer) *WebhookHandler {
	return &WebhookHandler{
		pipeline: webhook.NewService(services.NewCandidateService(db), scorer),
	}
}

// HandlePostCall processes one conversation-ended delivery.
// POST /api/webhooks/post-call
func (h *WebhookHandler) HandlePostCall(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "request body must be a JSON object")
		return
	}

	result, err := h.pipeline.Process(c.Request.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNoCandidateID):
			response.BadRequest(c, "candidateId missing in dynamic variables")
		case errors.Is(err, services.ErrCandidateNotFound):
			response.NotFound(c, "candidate not found")
		default:
			logger.Error().Err(err).Msg("webhook processing failed")
			// The provider logs the body of failed deliveries, so the
			// message carries the actual failure for debugging.
			response.ServerError(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
