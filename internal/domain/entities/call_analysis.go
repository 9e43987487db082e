package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ObjectionCategory is the closed set of objection classifications
type ObjectionCategory string

const (
	ObjectionCategoryPrice          ObjectionCategory = "PRICE"
	ObjectionCategoryTiming         ObjectionCategory = "TIMING"
	ObjectionCategoryTrustRisk      ObjectionCategory = "TRUST_RISK"
	ObjectionCategoryCompetition    ObjectionCategory = "COMPETITION"
	ObjectionCategoryStakeholders   ObjectionCategory = "STAKEHOLDERS"
	ObjectionCategoryTechnical      ObjectionCategory = "TECHNICAL"
	ObjectionCategoryImplementation ObjectionCategory = "IMPLEMENTATION"
	ObjectionCategoryValue          ObjectionCategory = "VALUE"
	ObjectionCategoryOthers         ObjectionCategory = "OTHERS"
)

// AllObjectionCategories lists every valid category; used by the schema
// check at the classification boundary.
var AllObjectionCategories = []ObjectionCategory{
	ObjectionCategoryPrice,
	ObjectionCategoryTiming,
	ObjectionCategoryTrustRisk,
	ObjectionCategoryCompetition,
	ObjectionCategoryStakeholders,
	ObjectionCategoryTechnical,
	ObjectionCategoryImplementation,
	ObjectionCategoryValue,
	ObjectionCategoryOthers,
}

// IsValidObjectionCategory reports whether c is part of the closed enum
func IsValidObjectionCategory(c ObjectionCategory) bool {
	for _, v := range AllObjectionCategories {
		if v == c {
			return true
		}
	}
	return false
}

// CallAnalysis is the persisted result of one successful pipeline run.
// Exactly zero or one per artifact; immutable after creation except for
// cascading deletion with its artifact.
type CallAnalysis struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ArtifactID uuid.UUID `json:"artifact_id" gorm:"type:uuid;not null;uniqueIndex"`

	Title              string         `json:"title" gorm:"type:varchar(500)"`
	CallDate           string         `json:"call_date" gorm:"type:varchar(50)"`
	Duration           string         `json:"duration" gorm:"type:varchar(20)"` // mm:ss or hh:mm:ss
	Participants       datatypes.JSON `json:"participants" gorm:"type:jsonb;default:'[]'"`
	Summary            string         `json:"summary" gorm:"type:text"`
	OverallSentiment   float64        `json:"overall_sentiment"` // 0-1
	KeyInsights        datatypes.JSON `json:"key_insights" gorm:"type:jsonb;default:'[]'"`
	Recommendations    datatypes.JSON `json:"recommendations" gorm:"type:jsonb;default:'[]'"`
	TalkRatio          float64        `json:"talk_ratio"` // sales rep share, 0-100
	QuestionsPerMinute float64        `json:"questions_per_minute"`
	TotalQuestions     int            `json:"total_questions"`
	TopicCoherence     float64        `json:"topic_coherence"` // 0-1

	// Optional details the service may report.
	TopicShifts      datatypes.JSON `json:"topic_shifts,omitempty" gorm:"type:jsonb;default:'[]'"`
	CompetitiveIntel datatypes.JSON `json:"competitive_intel,omitempty" gorm:"type:jsonb;default:'[]'"`

	// Chart-friendly projections derived by the normalizer.
	SentimentChart datatypes.JSON `json:"sentiment_chart,omitempty" gorm:"type:jsonb;default:'[]'"`
	TalkStatChart  datatypes.JSON `json:"talk_stat_chart,omitempty" gorm:"type:jsonb;default:'[]'"`

	Objections       []Objection           `json:"objections,omitempty" gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE"`
	SentimentEntries []SentimentEntry      `json:"sentiment_timeline,omitempty" gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE"`
	TalkStats        []ParticipantTalkStat `json:"talk_stats,omitempty" gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (CallAnalysis) TableName() string {
	return "call_analyses"
}

// Objection is one prospect pushback instance within an analysis
type Objection struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	AnalysisID uuid.UUID `json:"analysis_id" gorm:"type:uuid;not null;index"`

	ObjectionRef  string            `json:"objection_ref" gorm:"type:varchar(64)"` // obj-<n> when backfilled
	Text          string            `json:"text" gorm:"type:text;not null"`
	Timestamp     string            `json:"timestamp" gorm:"type:varchar(20)"`
	Response      string            `json:"response" gorm:"type:text"`
	Effectiveness float64           `json:"effectiveness"` // 0-1
	Category      ObjectionCategory `json:"category" gorm:"type:varchar(20);not null;index"`
	Success       bool              `json:"success"`
	ColorTag      string            `json:"color_tag" gorm:"type:varchar(10)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Objection) TableName() string {
	return "objections"
}

// SentimentEntry is one point on the call sentiment timeline
type SentimentEntry struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	AnalysisID uuid.UUID `json:"analysis_id" gorm:"type:uuid;not null;index"`

	Timestamp string  `json:"timestamp" gorm:"type:varchar(20)"`
	Score     float64 `json:"score"`                // 0-1
	Position  int     `json:"position" gorm:"index"` // preserves timeline order

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (SentimentEntry) TableName() string {
	return "sentiment_entries"
}

// ParticipantTalkStat is the per-participant share of the conversation.
// Percentages across one analysis sum to ~100.
type ParticipantTalkStat struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	AnalysisID uuid.UUID `json:"analysis_id" gorm:"type:uuid;not null;index"`

	Name       string  `json:"name" gorm:"type:varchar(255);not null"`
	Role       string  `json:"role" gorm:"type:varchar(100)"`
	WordCount  int     `json:"word_count"`
	Percentage float64 `json:"percentage"` // 0-100

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ParticipantTalkStat) TableName() string {
	return "participant_talk_stats"
}
