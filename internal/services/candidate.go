package services

import (
	"errors"
	"fmt"

	"github.com/skylark/spectra-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors for the candidate lifecycle. Handlers map these onto
// HTTP status codes.
var (
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrInterviewCompleted guards the single hard business invariant:
	// a completed interview can never be restarted.
	ErrInterviewCompleted = errors.New("interview already completed, restart is not allowed")
	ErrInvalidStatus      = errors.New("invalid candidate status")
	ErrScoreStatusFinal   = errors.New("score status is final and cannot revert to missing")
)

// CandidateService owns candidate and interview persistence, including
// the status state machine and the idempotent interview upsert.
type CandidateService struct {
	db *gorm.DB
}

func NewCandidateService(db *gorm.DB) *CandidateService {
	return &CandidateService{db: db}
}

// Create registers a new candidate in the pending state.
func (s *CandidateService) Create(id, name, email string) (*models.Candidate, error) {
	candidate := &models.Candidate{
		ID:          id,
		Name:        name,
		Email:       email,
		Status:      models.StatusPending,
		ScoreStatus: models.ScoreStatusMissing,
	}
	if err := s.db.Create(candidate).Error; err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return candidate, nil
}

// GetByID returns the candidate together with the most recent
// interview attempt, or ErrCandidateNotFound.
func (s *CandidateService) GetByID(id string) (*models.CandidateWithInterview, error) {
	var candidate models.Candidate
	if err := s.db.First(&candidate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}

	record := &models.CandidateWithInterview{Candidate: candidate}

	var interview models.Interview
	err := s.db.Where("candidate_id = ?", id).
		Order("created_at DESC").
		First(&interview).Error
	if err == nil {
		record.Interview = &interview
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return record, nil
}

// List returns all candidates, newest first.
func (s *CandidateService) List() ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := s.db.Order("created_at DESC").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

// UpdateCV stores the extracted CV text and its LLM summary.
func (s *CandidateService) UpdateCV(id, cvText, cvSummary string) error {
	result := s.db.Model(&models.Candidate{}).Where("id = ?", id).
		Updates(map[string]interface{}{"cv_text": cvText, "cv_summary": cvSummary})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// UpdateStatus transitions the candidate status. Completed is terminal:
// any attempt to move a completed candidate elsewhere fails with
// ErrInterviewCompleted, enforced here rather than by caller
// convention. Setting completed on an already-completed candidate is a
// harmless no-op so that concurrent finalizers converge.
func (s *CandidateService) UpdateStatus(id, status string) error {
	if !models.IsValidStatus(status) {
		return ErrInvalidStatus
	}

	var candidate models.Candidate
	if err := s.db.First(&candidate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCandidateNotFound
		}
		return err
	}

	if candidate.Status == models.StatusCompleted {
		if status == models.StatusCompleted {
			return nil
		}
		return ErrInterviewCompleted
	}

	return s.db.Model(&models.Candidate{}).Where("id = ?", id).
		Update("status", status).Error
}

// UpdateScore records a computed score, clamped by the scoring adapter
// upstream, and completes the candidate in the same write so the
// score/status pairing invariant holds.
func (s *CandidateService) UpdateScore(id string, score int) error {
	result := s.db.Model(&models.Candidate{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"ai_score":     score,
			"score_status": models.ScoreStatusComputed,
			"status":       models.StatusCompleted,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// UpdateScoreStatus records a scoring outcome without a score. Moving
// to error clears any score so the pairing invariant holds. Once the
// score status left missing it never goes back, and a computed score
// is never downgraded to error by a late failing writer.
func (s *CandidateService) UpdateScoreStatus(id, status string) error {
	if status != models.ScoreStatusMissing && status != models.ScoreStatusComputed && status != models.ScoreStatusError {
		return ErrInvalidStatus
	}

	var candidate models.Candidate
	if err := s.db.First(&candidate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCandidateNotFound
		}
		return err
	}

	if candidate.ScoreStatus != models.ScoreStatusMissing {
		if status == models.ScoreStatusMissing {
			return ErrScoreStatusFinal
		}
		if candidate.ScoreStatus == models.ScoreStatusComputed {
			return nil
		}
	}

	updates := map[string]interface{}{"score_status": status}
	if status != models.ScoreStatusComputed {
		updates["ai_score"] = nil
	}
	return s.db.Model(&models.Candidate{}).Where("id = ?", id).Updates(updates).Error
}

// UpsertInterview inserts the interview row for a call id, or
// overwrites the payload fields of the existing row for that id.
// The original creation time is preserved; rows are never deleted and
// never duplicated per call id.
func (s *CandidateService) UpsertInterview(interview *models.Interview) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"transcript", "agent_summary", "feedback_json", "audio_url",
		}),
	}).Create(interview).Error
}
