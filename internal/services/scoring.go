package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/skylark/spectra-backend/internal/config"
	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/pkg/logger"
)

// Input caps keep requests under external size limits. Inputs are
// truncated, never rejected.
const (
	MaxCVSummaryChars  = 2500
	MaxTranscriptChars = 18000
	MaxCVTextChars     = 12000
)

// geminiModelChain is the ordered model fallback used when the
// configured model is unavailable.
var geminiModelChain = []string{"gemini-2.5-flash", "gemini-flash-latest"}

// ScoringService turns a CV summary plus interview transcript into a
// structured feedback record via an external LLM call.
type ScoringService struct {
	cfg *config.LLMConfig
}

func NewScoringService(cfg *config.LLMConfig) *ScoringService {
	return &ScoringService{cfg: cfg}
}

// Truncate caps s at n characters.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func scoringPrompt(cvSummary, transcript string) string {
	return fmt.Sprintf(`You are scoring a GTM/Sales interview. Use the CV summary and transcript to generate strict JSON with keys:
overall_score (integer 0-100), score_status ("computed"), overall_feedback (1-3 concise sentences),
criteria (array of exactly 5 objects with keys: name, rating, note).
Allowed criterion names: %s.
Allowed ratings: good, neutral, bad.
Each note must be one short line.

CV Summary:
%s

Transcript:
%s`, strings.Join(models.CriterionNames, ", "), cvSummary, transcript)
}

// ScoreInterview evaluates one interview attempt. The returned record
// always carries a score clamped to [0,100] and sanitized criteria;
// an error means the call or the response parse failed and the caller
// should degrade rather than propagate.
func (s *ScoringService) ScoreInterview(ctx context.Context, cvSummary, transcript string) (*models.InterviewFeedback, error) {
	prompt := scoringPrompt(
		Truncate(cvSummary, MaxCVSummaryChars),
		Truncate(transcript, MaxTranscriptChars),
	)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return ParseFeedbackResponse(raw)
}

// generate dispatches to the configured provider, in the same shape as
// a multi-provider review pipeline: each provider gets its native SDK.
func (s *ScoringService) generate(ctx context.Context, prompt string) (string, error) {
	switch s.cfg.Provider {
	case "openai":
		return s.generateOpenAI(ctx, prompt)
	case "anthropic":
		return s.generateAnthropic(ctx, prompt)
	default:
		return s.generateGemini(ctx, prompt)
	}
}

// generateGemini walks the model fallback chain: configured model
// first, then the known-good defaults, surfacing the last error when
// every model fails.
func (s *ScoringService) generateGemini(ctx context.Context, prompt string) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("LLM API key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: s.cfg.APIKey})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	seen := map[string]bool{}
	chain := make([]string, 0, len(geminiModelChain)+1)
	for _, model := range append([]string{s.cfg.Model}, geminiModelChain...) {
		model = strings.TrimSpace(model)
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true
		chain = append(chain, model)
	}

	var lastErr error
	for _, model := range chain {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			logger.Warn().Err(err).Str("model", model).Msg("gemini model failed, trying next")
			lastErr = err
			continue
		}
		return resp.Text(), nil
	}

	return "", fmt.Errorf("all Gemini models failed: %w", lastErr)
}

func (s *ScoringService) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(s.cfg.APIKey)
	if s.cfg.BaseURL != "" {
		clientConfig.BaseURL = s.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *ScoringService) generateAnthropic(ctx context.Context, prompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(s.cfg.APIKey))

	model := s.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

// StripCodeFences removes markdown code-fence wrappers models like to
// put around JSON output.
func StripCodeFences(raw string) string {
	sanitized := strings.ReplaceAll(raw, "```json", "")
	sanitized = strings.ReplaceAll(sanitized, "```", "")
	return strings.TrimSpace(sanitized)
}

// ClampScore bounds a raw model score to the [0, 100] integer range.
func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	rounded := int(math.Round(v))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// coerceScore accepts the numeric-ish values models actually return:
// JSON numbers, numeric strings, or garbage that coerces to zero.
func coerceScore(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return ClampScore(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return ClampScore(f)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return ClampScore(f)
	default:
		return 0
	}
}

func coerceString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// ParseFeedbackResponse coerces a raw model response into a feedback
// record. Criteria missing a name or note are dropped; unknown ratings
// default to neutral; the score is always clamped. Only a response
// that is not JSON at all is an error.
func ParseFeedbackResponse(raw string) (*models.InterviewFeedback, error) {
	sanitized := StripCodeFences(raw)

	var loose struct {
		OverallScore    interface{} `json:"overall_score"`
		OverallFeedback interface{} `json:"overall_feedback"`
		Criteria        []struct {
			Name   interface{} `json:"name"`
			Rating interface{} `json:"rating"`
			Note   interface{} `json:"note"`
		} `json:"criteria"`
	}
	if err := json.Unmarshal([]byte(sanitized), &loose); err != nil {
		return nil, fmt.Errorf("scoring response is not valid JSON: %w", err)
	}

	score := coerceScore(loose.OverallScore)

	criteria := make([]models.FeedbackCriterion, 0, len(loose.Criteria))
	for _, row := range loose.Criteria {
		name := coerceString(row.Name)
		note := coerceString(row.Note)
		if name == "" || note == "" {
			continue
		}
		rating := strings.ToLower(coerceString(row.Rating))
		if rating != models.RatingGood && rating != models.RatingBad {
			rating = models.RatingNeutral
		}
		criteria = append(criteria, models.FeedbackCriterion{Name: name, Rating: rating, Note: note})
	}

	feedback := coerceString(loose.OverallFeedback)
	if feedback == "" {
		feedback = "Overall fit is under review."
	}

	return &models.InterviewFeedback{
		OverallScore:    &score,
		ScoreStatus:     models.ScoreStatusComputed,
		OverallFeedback: feedback,
		Criteria:        criteria,
	}, nil
}
