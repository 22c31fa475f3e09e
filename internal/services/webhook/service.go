package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/pkg/logger"
)

// Agent summaries stored for degraded deliveries. The dashboard shows
// them verbatim.
const (
	emptyTranscriptSummary = "Interview captured, but transcript was empty in webhook payload."
	scoringFailedSummary   = "Interview captured, but AI scoring failed. Feedback will use a fallback summary."
)

// Scorer produces structured feedback from a CV summary and a
// transcript. Satisfied by services.ScoringService.
type Scorer interface {
	ScoreInterview(ctx context.Context, cvSummary, transcript string) (*models.InterviewFeedback, error)
}

// CandidateStore is the slice of candidate persistence the webhook
// pipeline needs. Satisfied by services.CandidateService.
type CandidateStore interface {
	GetByID(id string) (*models.CandidateWithInterview, error)
	UpsertInterview(interview *models.Interview) error
	UpdateScore(id string, score int) error
	UpdateScoreStatus(id, status string) error
	UpdateStatus(id, status string) error
}

// Result is the synchronous webhook acknowledgement body.
type Result struct {
	OK     bool   `json:"ok"`
	Score  *int   `json:"score,omitempty"`
	CallID string `json:"callId"`
}

// Service runs the post-call pipeline: normalize the delivery, score
// the transcript, persist the interview, and finalize the candidate.
type Service struct {
	store  CandidateStore
	scorer Scorer
}

func NewService(store CandidateStore, scorer Scorer) *Service {
	return &Service{store: store, scorer: scorer}
}

// Process handles one webhook delivery end to end. Degraded inputs
// still complete the candidate: failed scoring lands in score_status
// error, an empty transcript leaves the score status untouched. Only
// unattributable or unpersistable deliveries return an error.
func (s *Service) Process(ctx context.Context, body map[string]interface{}) (*Result, error) {
	event, err := Normalize(body)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetByID(event.CandidateID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(event.Transcript) == "" {
		logger.Warn().Str("candidate_id", event.CandidateID).Str("call_id", event.CallID).
			Msg("webhook delivery had no usable transcript")
		return s.finishEmptyTranscript(event)
	}

	cvSummary := ""
	if record.CVSummary != nil {
		cvSummary = *record.CVSummary
	}

	feedback, err := s.scorer.ScoreInterview(ctx, cvSummary, event.Transcript)
	if err != nil {
		logger.Error().Err(err).Str("candidate_id", event.CandidateID).Str("call_id", event.CallID).
			Msg("interview scoring failed")
		return s.finishScoringFailed(event)
	}

	feedbackJSON, err := json.Marshal(feedback)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}

	interview := &models.Interview{
		ID:           event.CallID,
		CandidateID:  event.CandidateID,
		Transcript:   event.Transcript,
		AgentSummary: summaryText(feedback),
		FeedbackJSON: string(feedbackJSON),
		AudioURL:     event.AudioURL,
	}
	if err := s.store.UpsertInterview(interview); err != nil {
		return nil, fmt.Errorf("failed to store interview: %w", err)
	}

	if err := s.store.UpdateScore(event.CandidateID, *feedback.OverallScore); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}

	return &Result{OK: true, Score: feedback.OverallScore, CallID: event.CallID}, nil
}

// finishEmptyTranscript records the attempt and completes the
// candidate. No scoring was attempted, so score_status stays missing:
// a later redelivery carrying the transcript can still score.
func (s *Service) finishEmptyTranscript(event *Event) (*Result, error) {
	interview := &models.Interview{
		ID:           event.CallID,
		CandidateID:  event.CandidateID,
		AgentSummary: emptyTranscriptSummary,
		AudioURL:     event.AudioURL,
	}
	if err := s.store.UpsertInterview(interview); err != nil {
		return nil, fmt.Errorf("failed to store interview: %w", err)
	}
	if err := s.store.UpdateStatus(event.CandidateID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete candidate: %w", err)
	}
	return &Result{OK: true, CallID: event.CallID}, nil
}

// finishScoringFailed persists what arrived and completes the
// candidate in the error score state. The interview row is still
// written so the attempt is visible on the dashboard.
func (s *Service) finishScoringFailed(event *Event) (*Result, error) {
	interview := &models.Interview{
		ID:           event.CallID,
		CandidateID:  event.CandidateID,
		Transcript:   event.Transcript,
		AgentSummary: scoringFailedSummary,
		AudioURL:     event.AudioURL,
	}
	if err := s.store.UpsertInterview(interview); err != nil {
		return nil, fmt.Errorf("failed to store interview: %w", err)
	}
	if err := s.store.UpdateScoreStatus(event.CandidateID, models.ScoreStatusError); err != nil {
		return nil, fmt.Errorf("failed to record score status: %w", err)
	}
	if err := s.store.UpdateStatus(event.CandidateID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete candidate: %w", err)
	}
	return &Result{OK: true, CallID: event.CallID}, nil
}

// summaryText renders feedback as the plain-text agent summary shown
// in list views.
func summaryText(feedback *models.InterviewFeedback) string {
	var lines []string
	if feedback.OverallScore != nil {
		lines = append(lines, fmt.Sprintf("Overall Score: %d/100", *feedback.OverallScore))
	}
	for _, criterion := range feedback.Criteria {
		lines = append(lines, criterion.Name+": "+criterion.Note)
	}
	if feedback.OverallFeedback != "" {
		lines = append(lines, "Overall: "+feedback.OverallFeedback)
	}
	return strings.Join(lines, "\n")
}
