package models

import (
	"encoding/json"
	"strings"
)

// Criterion ratings.
const (
	RatingGood    = "good"
	RatingNeutral = "neutral"
	RatingBad     = "bad"
)

// CriterionNames is the fixed, ordered set of screening dimensions a
// machine-generated feedback record must cover.
var CriterionNames = []string{
	"Ownership",
	"Accountability",
	"Collaboration",
	"Customer Empathy",
	"Adaptability & Ambiguity",
}

// FeedbackCriterion is one named screening dimension with a short note.
type FeedbackCriterion struct {
	Name   string `json:"name"`
	Rating string `json:"rating"`
	Note   string `json:"note"`
}

// InterviewFeedback is the structured scoring record stored alongside
// an interview as JSON.
type InterviewFeedback struct {
	OverallScore    *int                `json:"overall_score"`
	ScoreStatus     string              `json:"score_status"`
	OverallFeedback string              `json:"overall_feedback"`
	Criteria        []FeedbackCriterion `json:"criteria"`
}

// ClassifyNote derives a rating from a free-text criterion note when
// the structured rating is absent or unknown. Negative keywords win
// over positive ones.
func ClassifyNote(note string) string {
	n := strings.ToLower(note)
	negatives := []string{"weak", "unclear", "poor", "missed", "limited", "lacking", "inconsistent", "negative"}
	positives := []string{"strong", "clear", "great", "excellent", "solid", "good", "effective", "confident"}
	for _, w := range negatives {
		if strings.Contains(n, w) {
			return RatingBad
		}
	}
	for _, w := range positives {
		if strings.Contains(n, w) {
			return RatingGood
		}
	}
	return RatingNeutral
}

// FallbackFeedback builds a displayable placeholder record from the
// candidate row when no structured feedback is available. It is never
// surfaced as an error: the dashboard always has something to render.
func FallbackFeedback(record *CandidateWithInterview) *InterviewFeedback {
	overall := "AI feedback pending."
	if record.Interview != nil && record.Interview.AgentSummary != "" {
		overall = record.Interview.AgentSummary
	}

	criteria := make([]FeedbackCriterion, 0, len(CriterionNames))
	for _, name := range CriterionNames {
		criteria = append(criteria, FeedbackCriterion{
			Name:   name,
			Rating: RatingNeutral,
			Note:   "No structured criterion note available yet.",
		})
	}

	return &InterviewFeedback{
		OverallScore:    record.AIScore,
		ScoreStatus:     record.ScoreStatus,
		OverallFeedback: overall,
		Criteria:        criteria,
	}
}

// ParseFeedback decodes the stored feedback JSON for a candidate's
// current interview, falling back to a neutral placeholder record when
// the JSON is absent, malformed, or missing fields.
func ParseFeedback(record *CandidateWithInterview) *InterviewFeedback {
	if record.Interview == nil || record.Interview.FeedbackJSON == "" {
		return FallbackFeedback(record)
	}

	var parsed InterviewFeedback
	if err := json.Unmarshal([]byte(record.Interview.FeedbackJSON), &parsed); err != nil {
		return FallbackFeedback(record)
	}

	criteria := make([]FeedbackCriterion, 0, len(parsed.Criteria))
	for _, row := range parsed.Criteria {
		rating := row.Rating
		if rating != RatingGood && rating != RatingBad {
			rating = ClassifyNote(row.Note)
		}
		criteria = append(criteria, FeedbackCriterion{Name: row.Name, Rating: rating, Note: row.Note})
	}

	out := &InterviewFeedback{
		OverallScore:    parsed.OverallScore,
		ScoreStatus:     parsed.ScoreStatus,
		OverallFeedback: parsed.OverallFeedback,
		Criteria:        criteria,
	}

	if out.OverallScore == nil {
		out.OverallScore = record.AIScore
	}
	if out.ScoreStatus != ScoreStatusComputed && out.ScoreStatus != ScoreStatusError && out.ScoreStatus != ScoreStatusMissing {
		out.ScoreStatus = record.ScoreStatus
	}
	if out.OverallFeedback == "" {
		out.OverallFeedback = FallbackFeedback(record).OverallFeedback
	}
	// A partial criteria list would render a lopsided scorecard, so
	// anything short of the full set gets the neutral placeholder.
	if len(out.Criteria) < len(CriterionNames) {
		out.Criteria = FallbackFeedback(record).Criteria
	}

	return out
}
