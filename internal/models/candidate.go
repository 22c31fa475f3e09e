package models

import "time"

// Candidate interview status. The lifecycle is linear:
// pending -> interviewing -> completed. Completed is terminal.
const (
	StatusPending      = "pending"
	StatusInterviewing = "interviewing"
	StatusCompleted    = "completed"
)

// Score status distinguishes "no score yet" from "scoring attempted
// and failed" from "score present". Computed and error are terminal.
const (
	ScoreStatusMissing  = "missing"
	ScoreStatusComputed = "computed"
	ScoreStatusError    = "error"
)

// Candidate represents a registered interviewee.
// Invariant: AIScore is non-nil if and only if ScoreStatus is computed.
type Candidate struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Email       string    `gorm:"size:255;not null" json:"email"`
	CVText      *string   `gorm:"type:text" json:"cv_text"`
	CVSummary   *string   `gorm:"type:text" json:"cv_summary"`
	Status      string    `gorm:"size:20;not null;default:pending" json:"status"`
	AIScore     *int      `json:"ai_score"`
	ScoreStatus string    `gorm:"size:20;not null;default:missing" json:"score_status"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Candidate) TableName() string { return "candidates" }

// IsValidStatus reports whether s is a known candidate status value.
func IsValidStatus(s string) bool {
	return s == StatusPending || s == StatusInterviewing || s == StatusCompleted
}

// CandidateWithInterview is a candidate joined with its current
// (most recent) interview attempt, if any.
type CandidateWithInterview struct {
	Candidate
	Interview *Interview `json:"interview"`
}
