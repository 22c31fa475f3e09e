package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/internal/services"
)

type fixedScorer struct {
	feedback *models.InterviewFeedback
	err      error
}

func (s *fixedScorer) ScoreInterview(context.Context, string, string) (*models.InterviewFeedback, error) {
	return s.feedback, s.err
}

func webhookRouter(db *gorm.DB, scorer *fixedScorer) *gin.Engine {
	h := NewWebhookHandler(db, scorer)
	router := gin.New()
	router.POST("/api/webhooks/post-call", h.HandlePostCall)
	return router
}

func computedFeedback(score int) *models.InterviewFeedback {
	return &models.InterviewFeedback{
		OverallScore:    &score,
		ScoreStatus:     models.ScoreStatusComputed,
		OverallFeedback: "Strong close.",
		Criteria: []models.FeedbackCriterion{
			{Name: "Ownership", Rating: models.RatingGood, Note: "Owned the outcome."},
		},
	}
}

func TestWebhookSuccess(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewCandidateService(db)
	if _, err := svc.Create("cand-1", "A", "a@example.com"); err != nil {
		t.Fatal(err)
	}
	router := webhookRouter(db, &fixedScorer{feedback: computedFeedback(91)})

	w := doJSON(router, "POST", "/api/webhooks/post-call", map[string]interface{}{
		"conversation_id":   "conv-1",
		"dynamic_variables": map[string]string{"candidate_id": "cand-1"},
		"transcript": []map[string]string{
			{"role": "user", "message": "I built the pipeline from scratch."},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	// Raw provider acknowledgement, not the dashboard envelope.
	var ack struct {
		OK     bool   `json:"ok"`
		Score  *int   `json:"score"`
		CallID string `json:"callId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.OK || ack.CallID != "conv-1" {
		t.Errorf("ack = %+v", ack)
	}
	if ack.Score == nil || *ack.Score != 91 {
		t.Errorf("ack score = %v, want 91", ack.Score)
	}

	record, err := svc.GetByID("cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.StatusCompleted || record.ScoreStatus != models.ScoreStatusComputed {
		t.Errorf("candidate = %q/%q, want completed/computed", record.Status, record.ScoreStatus)
	}
	if record.Interview == nil || record.Interview.ID != "conv-1" {
		t.Errorf("interview = %+v, want row keyed by conv-1", record.Interview)
	}
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewCandidateService(db)
	if _, err := svc.Create("cand-1", "A", "a@example.com"); err != nil {
		t.Fatal(err)
	}
	router := webhookRouter(db, &fixedScorer{feedback: computedFeedback(75)})

	body := map[string]interface{}{
		"conversation_id":   "conv-1",
		"dynamic_variables": map[string]string{"candidate_id": "cand-1"},
		"transcript": []map[string]string{
			{"role": "user", "message": "same delivery twice"},
		},
	}
	for i := 0; i < 2; i++ {
		if w := doJSON(router, "POST", "/api/webhooks/post-call", body); w.Code != http.StatusOK {
			t.Fatalf("delivery %d status = %d", i+1, w.Code)
		}
	}

	var count int64
	db.Model(&models.Interview{}).Where("id = ?", "conv-1").Count(&count)
	if count != 1 {
		t.Errorf("interview rows = %d, want 1 after redelivery", count)
	}
}

func TestWebhookMissingCandidateID(t *testing.T) {
	router := webhookRouter(newTestDB(t), &fixedScorer{feedback: computedFeedback(50)})

	w := doJSON(router, "POST", "/api/webhooks/post-call",
		map[string]interface{}{"conversation_id": "conv-1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebhookUnknownCandidate(t *testing.T) {
	router := webhookRouter(newTestDB(t), &fixedScorer{feedback: computedFeedback(50)})

	w := doJSON(router, "POST", "/api/webhooks/post-call", map[string]interface{}{
		"dynamic_variables": map[string]string{"candidate_id": "ghost"},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWebhookEmptyTranscriptCompletesWithoutScoreStatus(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewCandidateService(db)
	if _, err := svc.Create("cand-1", "A", "a@example.com"); err != nil {
		t.Fatal(err)
	}
	router := webhookRouter(db, &fixedScorer{feedback: computedFeedback(80)})

	w := doJSON(router, "POST", "/api/webhooks/post-call", map[string]interface{}{
		"call_id":           "call-empty",
		"dynamic_variables": map[string]string{"candidate_id": "cand-1"},
		"transcript":        []map[string]string{},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	record, err := svc.GetByID("cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", record.Status)
	}
	// Scoring never ran: the score status stays missing, not error.
	if record.ScoreStatus != models.ScoreStatusMissing {
		t.Errorf("score status = %q, want missing", record.ScoreStatus)
	}
	if record.AIScore != nil {
		t.Errorf("ai score = %v, want nil", *record.AIScore)
	}
	if record.Interview == nil || record.Interview.ID != "call-empty" {
		t.Errorf("interview = %+v, want row keyed by call-empty", record.Interview)
	}
}

func TestWebhookPersistFailureEchoesCause(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewCandidateService(db)
	if _, err := svc.Create("cand-1", "A", "a@example.com"); err != nil {
		t.Fatal(err)
	}
	// Break interview storage so the pipeline fails mid-flight.
	if err := db.Migrator().DropTable(&models.Interview{}); err != nil {
		t.Fatal(err)
	}
	router := webhookRouter(db, &fixedScorer{feedback: computedFeedback(80)})

	w := doJSON(router, "POST", "/api/webhooks/post-call", map[string]interface{}{
		"call_id":           "call-1",
		"dynamic_variables": map[string]string{"candidate_id": "cand-1"},
		"transcript": []map[string]string{
			{"role": "user", "message": "hello"},
		},
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	// The message names the actual failure, not a canned string.
	if !strings.Contains(body.Message, "interviews") {
		t.Errorf("message = %q, want the underlying database error", body.Message)
	}
	if body.Message == "failed to process webhook" {
		t.Error("message must carry the cause, not a generic placeholder")
	}
}

func TestWebhookScoringFailureStillCompletes(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewCandidateService(db)
	if _, err := svc.Create("cand-1", "A", "a@example.com"); err != nil {
		t.Fatal(err)
	}
	router := webhookRouter(db, &fixedScorer{err: errors.New("provider down")})

	w := doJSON(router, "POST", "/api/webhooks/post-call", map[string]interface{}{
		"call_id":           "call-9",
		"dynamic_variables": map[string]string{"candidate_id": "cand-1"},
		"transcript": []map[string]string{
			{"role": "user", "message": "hello"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for degraded processing", w.Code)
	}

	record, err := svc.GetByID("cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", record.Status)
	}
	if record.ScoreStatus != models.ScoreStatusError {
		t.Errorf("score status = %q, want error", record.ScoreStatus)
	}
	if record.AIScore != nil {
		t.Errorf("ai score = %v, want nil when scoring failed", *record.AIScore)
	}
}
