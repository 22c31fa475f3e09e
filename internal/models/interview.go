package models

import "time"

// Interview is one persisted interview attempt. The primary key is the
// external call/session id, which makes the webhook upsert idempotent:
// retried deliveries for the same call converge on one row. Multiple
// rows may exist per candidate (e.g. fallback-id attempts); the most
// recently created one is the current attempt.
type Interview struct {
	ID           string    `gorm:"primaryKey;size:128" json:"id"`
	CandidateID  string    `gorm:"size:64;index;not null" json:"candidate_id"`
	Transcript   string    `gorm:"type:text" json:"transcript"`
	AgentSummary string    `gorm:"type:text" json:"agent_summary"`
	FeedbackJSON string    `gorm:"type:text" json:"feedback_json"`
	AudioURL     *string   `gorm:"size:500" json:"audio_url"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Interview) TableName() string { return "interviews" }
