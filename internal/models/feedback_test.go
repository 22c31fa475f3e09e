package models

import "testing"

func intPtr(n int) *int { return &n }

func TestClassifyNote(t *testing.T) {
	tests := []struct {
		note     string
		expected string
	}{
		{"Strong sense of ownership throughout", RatingGood},
		{"Answers were unclear and rambling", RatingBad},
		{"Average performance on this dimension", RatingNeutral},
		{"Clear but limited examples", RatingBad}, // negatives win
		{"", RatingNeutral},
	}

	for _, tt := range tests {
		if got := ClassifyNote(tt.note); got != tt.expected {
			t.Errorf("ClassifyNote(%q) = %q, expected %q", tt.note, got, tt.expected)
		}
	}
}

func TestFallbackFeedback(t *testing.T) {
	record := &CandidateWithInterview{
		Candidate: Candidate{ID: "c1", ScoreStatus: ScoreStatusMissing},
	}

	fb := FallbackFeedback(record)

	if len(fb.Criteria) != 5 {
		t.Fatalf("expected exactly 5 criteria, got %d", len(fb.Criteria))
	}
	for i, c := range fb.Criteria {
		if c.Name != CriterionNames[i] {
			t.Errorf("criterion %d name = %q, expected %q", i, c.Name, CriterionNames[i])
		}
		if c.Rating != RatingNeutral {
			t.Errorf("criterion %q rating = %q, expected neutral", c.Name, c.Rating)
		}
	}
	if fb.OverallFeedback != "AI feedback pending." {
		t.Errorf("unexpected overall feedback %q", fb.OverallFeedback)
	}
	if fb.ScoreStatus != ScoreStatusMissing {
		t.Errorf("score status = %q, expected missing", fb.ScoreStatus)
	}
}

func TestFallbackFeedback_UsesAgentSummary(t *testing.T) {
	record := &CandidateWithInterview{
		Candidate: Candidate{ID: "c1", ScoreStatus: ScoreStatusError},
		Interview: &Interview{AgentSummary: "Interview captured, but AI scoring failed for this attempt."},
	}

	fb := FallbackFeedback(record)
	if fb.OverallFeedback != record.Interview.AgentSummary {
		t.Errorf("overall feedback = %q, expected the agent summary", fb.OverallFeedback)
	}
}

func TestParseFeedback_Malformed(t *testing.T) {
	record := &CandidateWithInterview{
		Candidate: Candidate{ID: "c1", ScoreStatus: ScoreStatusMissing},
		Interview: &Interview{FeedbackJSON: "{not json"},
	}

	fb := ParseFeedback(record)
	if len(fb.Criteria) != 5 {
		t.Errorf("malformed JSON should fall back to 5 placeholder criteria, got %d", len(fb.Criteria))
	}
}

func TestParseFeedback_Valid(t *testing.T) {
	record := &CandidateWithInterview{
		Candidate: Candidate{ID: "c1", AIScore: intPtr(70), ScoreStatus: ScoreStatusComputed},
		Interview: &Interview{FeedbackJSON: `{
			"overall_score": 82,
			"score_status": "computed",
			"overall_feedback": "Promising candidate.",
			"criteria": [
				{"name": "Ownership", "rating": "good", "note": "Owned outcomes"},
				{"name": "Accountability", "rating": "magic", "note": "weak follow-through examples"},
				{"name": "Collaboration", "rating": "neutral", "note": "Worked with the team"},
				{"name": "Customer Empathy", "rating": "good", "note": "Strong customer focus"},
				{"name": "Adaptability & Ambiguity", "rating": "neutral", "note": "Handled pivots"}
			]
		}`},
	}

	fb := ParseFeedback(record)
	if fb.OverallScore == nil || *fb.OverallScore != 82 {
		t.Errorf("overall score = %v, expected 82", fb.OverallScore)
	}
	if len(fb.Criteria) != 5 {
		t.Fatalf("full criteria list should be kept, got %d rows", len(fb.Criteria))
	}
	if fb.Criteria[0].Rating != RatingGood {
		t.Errorf("explicit good rating should be kept, got %q", fb.Criteria[0].Rating)
	}
	// Unknown ratings reclassify from the note text.
	if fb.Criteria[1].Rating != RatingBad {
		t.Errorf("unknown rating with negative note should classify bad, got %q", fb.Criteria[1].Rating)
	}
}

func TestParseFeedback_PartialCriteria(t *testing.T) {
	record := &CandidateWithInterview{
		Candidate: Candidate{ID: "c1", ScoreStatus: ScoreStatusComputed, AIScore: intPtr(64)},
		Interview: &Interview{FeedbackJSON: `{
			"overall_score": 64,
			"score_status": "computed",
			"overall_feedback": "Cut off mid-generation.",
			"criteria": [
				{"name": "Ownership", "rating": "good", "note": "Owned outcomes"},
				{"name": "Collaboration", "rating": "bad", "note": "weak teamwork examples"}
			]
		}`},
	}

	fb := ParseFeedback(record)
	// Two of five rows is an incomplete scorecard: the neutral
	// placeholder set replaces it wholesale.
	if len(fb.Criteria) != 5 {
		t.Fatalf("partial criteria should be replaced by the fallback set, got %d rows", len(fb.Criteria))
	}
	for i, c := range fb.Criteria {
		if c.Name != CriterionNames[i] {
			t.Errorf("criterion %d name = %q, expected %q", i, c.Name, CriterionNames[i])
		}
		if c.Rating != RatingNeutral {
			t.Errorf("criterion %q rating = %q, expected neutral", c.Name, c.Rating)
		}
	}
	if fb.OverallScore == nil || *fb.OverallScore != 64 {
		t.Errorf("overall score = %v, expected 64 to survive the substitution", fb.OverallScore)
	}
}

func TestParseFeedback_EmptyCriteria(t *testing.T) {
	record := &CandidateWithInterview{
		Candidate: Candidate{ID: "c1", ScoreStatus: ScoreStatusComputed, AIScore: intPtr(55)},
		Interview: &Interview{FeedbackJSON: `{"overall_feedback": "ok", "criteria": []}`},
	}

	fb := ParseFeedback(record)
	if len(fb.Criteria) != 5 {
		t.Errorf("empty criteria should be replaced by fallback set, got %d", len(fb.Criteria))
	}
	if fb.OverallScore == nil || *fb.OverallScore != 55 {
		t.Errorf("missing score should inherit candidate score, got %v", fb.OverallScore)
	}
	if fb.ScoreStatus != ScoreStatusComputed {
		t.Errorf("invalid score status should inherit candidate status, got %q", fb.ScoreStatus)
	}
}
