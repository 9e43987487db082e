package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LooseString accepts either a JSON string or a JSON number. The
// classification service is inconsistent about timestamp types; the schema
// absorbs that here so nothing downstream re-validates it.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler
func (s *LooseString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = LooseString(strconv.FormatFloat(num, 'f', -1, 64))
	return nil
}

// CallAnalysisResult is the structured output of the classification service.
// This is the single closed schema checked at the adapter boundary; optional
// fields use pointers so the normalizer can tell "absent" from "zero".
type CallAnalysisResult struct {
	Title              string               `json:"title"`
	Date               string               `json:"date"`
	Duration           string               `json:"duration"`
	Participants       []string             `json:"participants"`
	Summary            string               `json:"summary"`
	OverallSentiment   float64              `json:"overall_sentiment"`
	KeyInsights        []string             `json:"key_insights"`
	Recommendations    []string             `json:"recommendations"`
	TalkRatio          float64              `json:"talk_ratio"`
	QuestionsPerMinute *float64             `json:"questions_per_minute,omitempty"`
	TotalQuestions     int                  `json:"total_questions"`
	TopicCoherence     float64              `json:"topic_coherence"`
	Objections         []RawObjection       `json:"objections"`
	SentimentTimeline  []RawSentimentPoint  `json:"sentiment_timeline"`
	TalkStats          []RawTalkStat        `json:"talk_stats"`
	TopicShifts        []RawTopicShift      `json:"topic_shifts,omitempty"`
	CompetitiveIntel   []RawCompetitorNote  `json:"competitive_intel,omitempty"`
	SentimentChart     []ChartPoint         `json:"sentiment_chart,omitempty"`
	TalkStatChart      []ChartPoint         `json:"talk_stat_chart,omitempty"`
}

// RawObjection is an objection as reported by the service, before
// normalization fills identifiers, categories and success flags.
type RawObjection struct {
	ID            string      `json:"id,omitempty"`
	Text          string      `json:"text"`
	Timestamp     LooseString `json:"timestamp,omitempty"`
	Response      string      `json:"response,omitempty"`
	Effectiveness float64     `json:"effectiveness"`
	Category      string      `json:"category,omitempty"`
	Success       *bool       `json:"success,omitempty"`
	ColorTag      string      `json:"color_tag,omitempty"`
}

// RawSentimentPoint is one raw timeline point
type RawSentimentPoint struct {
	Timestamp LooseString `json:"timestamp"`
	Score     float64     `json:"score"`
}

// RawTalkStat is one raw per-participant talk share
type RawTalkStat struct {
	Name       string  `json:"name"`
	Role       string  `json:"role,omitempty"`
	WordCount  int     `json:"word_count"`
	Percentage float64 `json:"percentage"`
}

// RawTopicShift is an optional detail about the conversation changing topic
type RawTopicShift struct {
	Timestamp LooseString `json:"timestamp"`
	FromTopic string      `json:"from_topic"`
	ToTopic   string      `json:"to_topic"`
}

// RawCompetitorNote is an optional competitive-intelligence detail
type RawCompetitorNote struct {
	Competitor string `json:"competitor"`
	Context    string `json:"context"`
}

// ChartPoint is a UI-ready (label, value) pair derived by the normalizer
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}
