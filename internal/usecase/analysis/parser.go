package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// Parser decodes and validates the classification service's response against
// the analysis schema. Everything that gets past this point is structurally
// sound; the normalizer only fills gaps, it never re-validates.
type Parser struct{}

// NewParser creates a parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseResponse decodes the raw completion text into a CallAnalysisResult.
// The service sometimes wraps its JSON in markdown fences or surrounds it
// with prose; extractJSON strips that before decoding.
func (p *Parser) ParseResponse(raw string) (*entities.CallAnalysisResult, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var result entities.CallAnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}

	if err := p.validate(&result); err != nil {
		return nil, err
	}

	// Nil slices become empty so JSONB columns never see null.
	if result.Participants == nil {
		result.Participants = []string{}
	}
	if result.KeyInsights == nil {
		result.KeyInsights = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}

	return &result, nil
}

// validate enforces required fields, enum membership and numeric ranges.
// A violation fails the whole pipeline run; there is no partial acceptance.
func (p *Parser) validate(r *entities.CallAnalysisResult) error {
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("analysis response missing required field: summary")
	}
	if strings.TrimSpace(r.Duration) == "" {
		return fmt.Errorf("analysis response missing required field: duration")
	}

	if r.OverallSentiment < 0 || r.OverallSentiment > 1 {
		return fmt.Errorf("overall_sentiment out of range [0,1]: %v", r.OverallSentiment)
	}
	if r.TopicCoherence < 0 || r.TopicCoherence > 1 {
		return fmt.Errorf("topic_coherence out of range [0,1]: %v", r.TopicCoherence)
	}
	if r.TalkRatio < 0 || r.TalkRatio > 100 {
		return fmt.Errorf("talk_ratio out of range [0,100]: %v", r.TalkRatio)
	}
	if r.TotalQuestions < 0 {
		return fmt.Errorf("total_questions cannot be negative: %d", r.TotalQuestions)
	}

	for i, o := range r.Objections {
		if strings.TrimSpace(o.Text) == "" {
			return fmt.Errorf("objection %d missing text", i)
		}
		if o.Effectiveness < 0 || o.Effectiveness > 1 {
			return fmt.Errorf("objection %d effectiveness out of range [0,1]: %v", i, o.Effectiveness)
		}
		// A category, when present, must be a member of the closed enum.
		// Missing categories are legal; the normalizer fills them.
		if o.Category != "" && !entities.IsValidObjectionCategory(entities.ObjectionCategory(o.Category)) {
			return fmt.Errorf("objection %d has unknown category %q", i, o.Category)
		}
	}

	for i, s := range r.SentimentTimeline {
		if s.Score < 0 || s.Score > 1 {
			return fmt.Errorf("sentiment point %d score out of range [0,1]: %v", i, s.Score)
		}
	}

	for i, t := range r.TalkStats {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("talk stat %d missing participant name", i)
		}
		if t.Percentage < 0 || t.Percentage > 100 {
			return fmt.Errorf("talk stat %d percentage out of range [0,100]: %v", i, t.Percentage)
		}
	}

	return nil
}

// extractJSON returns the JSON object embedded in text. It strips markdown
// code fences first, then falls back to the outermost brace pair.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx != -1 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(text, "```"); idx != -1 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}
