package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/skylark/spectra-backend/internal/config"
)

// VoiceService fronts the conversational-voice provider. The browser
// never sees the provider API key; it asks this service for a
// short-lived conversation token instead.
type VoiceService struct {
	cfg    *config.VoiceConfig
	client *http.Client
}

func NewVoiceService(cfg *config.VoiceConfig) *VoiceService {
	return &VoiceService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *VoiceService) baseURL() string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	return "https://api.elevenlabs.io"
}

// ConversationToken mints a token the client SDK can open a session
// with. Requires both the API key and agent id to be configured.
func (s *VoiceService) ConversationToken(ctx context.Context) (string, error) {
	if s.cfg.APIKey == "" || s.cfg.AgentID == "" {
		return "", fmt.Errorf("voice provider is not configured")
	}

	endpoint := fmt.Sprintf("%s/v1/convai/conversation/token?agent_id=%s",
		s.baseURL(), url.QueryEscape(s.cfg.AgentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voice token request returned status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("voice token response decode failed: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("voice token response was empty")
	}
	return payload.Token, nil
}

// SignedURL is the fallback session entry point for client SDK
// versions that cannot use conversation tokens.
func (s *VoiceService) SignedURL(ctx context.Context) (string, error) {
	if s.cfg.APIKey == "" || s.cfg.AgentID == "" {
		return "", fmt.Errorf("voice provider is not configured")
	}

	endpoint := fmt.Sprintf("%s/v1/convai/conversation/get_signed_url?agent_id=%s",
		s.baseURL(), url.QueryEscape(s.cfg.AgentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("signed URL request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signed URL request returned status %d", resp.StatusCode)
	}

	var payload struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("signed URL response decode failed: %w", err)
	}
	if payload.SignedURL == "" {
		return "", fmt.Errorf("signed URL response was empty")
	}
	return payload.SignedURL, nil
}

// AgentID exposes the public agent id, the last-resort session entry
// point when neither token nor signed URL can be minted.
func (s *VoiceService) AgentID() string {
	return s.cfg.AgentID
}
