package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skylark/spectra-backend/internal/services"
	"github.com/skylark/spectra-backend/pkg/logger"
	"github.com/skylark/spectra-backend/pkg/response"
)

// VoiceHandler proxies session credentials from the voice provider so
// the browser never holds the provider API key.
type VoiceHandler struct {
	voice *services.VoiceService
}

func NewVoiceHandler(voice *services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voice: voice}
}

// Token mints a conversation token
// GET /api/voice/token
func (h *VoiceHandler) Token(c *gin.Context) {
	token, err := h.voice.ConversationToken(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("conversation token request failed")
		response.ServerError(c, "could not obtain a conversation token")
		return
	}
	response.Success(c, gin.H{"token": token})
}

// SignedURL returns the fallback session entry point
// GET /api/voice/signed-url
func (h *VoiceHandler) SignedURL(c *gin.Context) {
	signedURL, err := h.voice.SignedURL(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("signed URL request failed")
		response.ServerError(c, "could not obtain a signed URL")
		return
	}
	response.Success(c, gin.H{"signed_url": signedURL})
}

// AgentID exposes the public agent id for the last-resort session
// start path
// GET /api/voice/agent
func (h *VoiceHandler) AgentID(c *gin.Context) {
	response.Success(c, gin.H{"agent_id": h.voice.AgentID()})
}
