package analysis

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// buildCallAnalysis maps a normalized result onto the persisted entity
// graph. Child rows carry no IDs here; the repository assigns them inside
// the transaction.
func buildCallAnalysis(artifactID uuid.UUID, result *entities.CallAnalysisResult) *entities.CallAnalysis {
	analysis := &entities.CallAnalysis{
		ArtifactID:       artifactID,
		Title:            result.Title,
		CallDate:         result.Date,
		Duration:         result.Duration,
		Participants:     toJSONB(result.Participants),
		Summary:          result.Summary,
		OverallSentiment: result.OverallSentiment,
		KeyInsights:      toJSONB(result.KeyInsights),
		Recommendations:  toJSONB(result.Recommendations),
		TalkRatio:        result.TalkRatio,
		TotalQuestions:   result.TotalQuestions,
		TopicCoherence:   result.TopicCoherence,
		TopicShifts:      toJSONB(result.TopicShifts),
		CompetitiveIntel: toJSONB(result.CompetitiveIntel),
		SentimentChart:   toJSONB(result.SentimentChart),
		TalkStatChart:    toJSONB(result.TalkStatChart),
	}
	if result.QuestionsPerMinute != nil {
		analysis.QuestionsPerMinute = *result.QuestionsPerMinute
	}

	for _, o := range result.Objections {
		success := false
		if o.Success != nil {
			success = *o.Success
		}
		analysis.Objections = append(analysis.Objections, entities.Objection{
			ObjectionRef:  o.ID,
			Text:          o.Text,
			Timestamp:     string(o.Timestamp),
			Response:      o.Response,
			Effectiveness: o.Effectiveness,
			Category:      entities.ObjectionCategory(o.Category),
			Success:       success,
			ColorTag:      o.ColorTag,
		})
	}

	for i, pt := range result.SentimentTimeline {
		analysis.SentimentEntries = append(analysis.SentimentEntries, entities.SentimentEntry{
			Timestamp: string(pt.Timestamp),
			Score:     pt.Score,
			Position:  i,
		})
	}

	for _, s := range result.TalkStats {
		analysis.TalkStats = append(analysis.TalkStats, entities.ParticipantTalkStat{
			Name:       s.Name,
			Role:       s.Role,
			WordCount:  s.WordCount,
			Percentage: s.Percentage,
		})
	}

	return analysis
}

// toJSONB marshals v for a JSONB column, falling back to an empty array so
// the column default holds when marshaling is impossible.
func toJSONB(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}
