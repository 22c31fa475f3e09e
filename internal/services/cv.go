package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/skylark/spectra-backend/pkg/logger"
)

// CVAnalysis is the structured result of running a resume through the
// LLM before the interview starts.
type CVAnalysis struct {
	Summary   string   `json:"summary"`
	KeySkills []string `json:"key_skills"`
}

// ExtractPDFText pulls plain text out of an uploaded resume. Pages
// that fail extraction are skipped; the call errors only when no page
// yields any text.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			logger.Warn().Err(err).Int("page", i).Msg("skipping unreadable PDF page")
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			logger.Warn().Err(err).Int("page", i).Msg("skipping PDF page without extractor")
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			logger.Warn().Err(err).Int("page", i).Msg("text extraction failed for PDF page")
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text in PDF")
	}
	return text, nil
}

func cvPrompt(cvText string) string {
	return fmt.Sprintf(`Summarize this resume for a GTM/Sales interviewer. Return strict JSON with keys:
summary (3-5 sentences covering experience, track record and any gaps),
key_skills (array of up to 8 short skill strings).

Resume:
%s`, cvText)
}

// AnalyzeCV summarizes raw resume text for later use in interview
// scoring. Input is truncated to keep the request within limits.
func (s *ScoringService) AnalyzeCV(ctx context.Context, cvText string) (*CVAnalysis, error) {
	raw, err := s.generate(ctx, cvPrompt(Truncate(cvText, MaxCVTextChars)))
	if err != nil {
		return nil, err
	}

	var analysis CVAnalysis
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("CV analysis response is not valid JSON: %w", err)
	}
	if strings.TrimSpace(analysis.Summary) == "" {
		return nil, fmt.Errorf("CV analysis returned an empty summary")
	}
	return &analysis, nil
}
