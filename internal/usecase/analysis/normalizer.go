package analysis

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// successThreshold is the effectiveness cutoff above which an objection
// handling counts as successful when the service did not say.
const successThreshold = 0.7

// categoryRule binds keywords to a category. Rules are evaluated in order
// and the first match wins, so the table order is the priority order.
type categoryRule struct {
	category entities.ObjectionCategory
	keywords []string
}

var categoryRules = []categoryRule{
	{entities.ObjectionCategoryPrice, []string{
		"price", "pricing", "expensive", "cost", "budget", "afford", "discount", "cheaper",
	}},
	{entities.ObjectionCategoryTiming, []string{
		"timing", "not the right time", "next quarter", "next year", "too early", "too soon", "later", "busy", "roadmap",
	}},
	{entities.ObjectionCategoryTrustRisk, []string{
		"trust", "risk", "risky", "security", "compliance", "burned", "guarantee", "references", "proof", "skeptical",
	}},
	{entities.ObjectionCategoryCompetition, []string{
		"competitor", "competition", "alternative", "other vendor", "already using", "current provider", "switch",
	}},
	{entities.ObjectionCategoryStakeholders, []string{
		"stakeholder", "my boss", "my manager", "decision maker", "committee", "approval", "sign-off", "procurement", "legal team",
	}},
	{entities.ObjectionCategoryTechnical, []string{
		"technical", "integration", "integrate", "api", "compatib", "infrastructure", "performance", "scalab",
	}},
	{entities.ObjectionCategoryImplementation, []string{
		"implementation", "implement", "onboarding", "rollout", "migration", "deploy", "training", "setup",
	}},
	{entities.ObjectionCategoryValue, []string{
		"value", "roi", "return on investment", "benefit", "worth it", "need it", "use case", "why would",
	}},
}

// ClassifyObjection assigns a category to objection text by keyword match.
// Deterministic: same text always yields the same category, OTHERS when no
// rule matches.
func ClassifyObjection(text string) entities.ObjectionCategory {
	lowered := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.category
			}
		}
	}
	return entities.ObjectionCategoryOthers
}

// categoryColorTags is the fixed category to display color mapping
var categoryColorTags = map[entities.ObjectionCategory]string{
	entities.ObjectionCategoryPrice:          "#EF4444",
	entities.ObjectionCategoryTiming:         "#F59E0B",
	entities.ObjectionCategoryTrustRisk:      "#8B5CF6",
	entities.ObjectionCategoryCompetition:    "#3B82F6",
	entities.ObjectionCategoryStakeholders:   "#EC4899",
	entities.ObjectionCategoryTechnical:      "#6366F1",
	entities.ObjectionCategoryImplementation: "#14B8A6",
	entities.ObjectionCategoryValue:          "#10B981",
	entities.ObjectionCategoryOthers:         "#6B7280",
}

// ColorTagFor returns the display color for a category
func ColorTagFor(c entities.ObjectionCategory) string {
	if tag, ok := categoryColorTags[c]; ok {
		return tag
	}
	return categoryColorTags[entities.ObjectionCategoryOthers]
}

// Normalizer fills the gaps the classification service leaves: identifiers,
// categories, success flags, timestamps, derived metrics and chart
// projections. It is pure; the same result always normalizes the same way.
type Normalizer struct{}

// NewNormalizer creates a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize mutates the result in place. It never rejects data; structural
// validation already happened at the parse boundary.
func (n *Normalizer) Normalize(result *entities.CallAnalysisResult) error {
	if result == nil {
		return fmt.Errorf("cannot normalize nil result")
	}

	durationSeconds := parseDurationSeconds(result.Duration)

	for i := range result.Objections {
		obj := &result.Objections[i]

		if strings.TrimSpace(obj.ID) == "" {
			obj.ID = fmt.Sprintf("obj-%d", i+1)
		}
		if obj.Category == "" {
			obj.Category = string(ClassifyObjection(obj.Text))
		}
		if obj.Success == nil {
			success := obj.Effectiveness > successThreshold
			obj.Success = &success
		}
		obj.Timestamp = entities.LooseString(NormalizeTimestamp(string(obj.Timestamp)))
		obj.ColorTag = ColorTagFor(entities.ObjectionCategory(obj.Category))
	}

	for i := range result.SentimentTimeline {
		pt := &result.SentimentTimeline[i]
		pt.Timestamp = entities.LooseString(NormalizeTimestamp(string(pt.Timestamp)))
	}

	for i := range result.TopicShifts {
		shift := &result.TopicShifts[i]
		shift.Timestamp = entities.LooseString(NormalizeTimestamp(string(shift.Timestamp)))
	}

	// Questions per minute is derived from the question count and call
	// duration whenever the service omitted it.
	if result.QuestionsPerMinute == nil {
		qpm := deriveQuestionsPerMinute(result.TotalQuestions, durationSeconds)
		result.QuestionsPerMinute = &qpm
	}

	// Per-participant shares describe one call, so they must sum to 100.
	// The service's arithmetic drifts sometimes; rescale before anything
	// downstream derives from the shares.
	normalizeTalkStatShares(result.TalkStats)

	// Talk ratio is always computed from talk stats when missing, never
	// defaulted to an even split.
	if result.TalkRatio <= 0 {
		result.TalkRatio = computeTalkRatio(result.TalkStats)
	}

	if len(result.SentimentChart) == 0 {
		result.SentimentChart = projectSentimentChart(result.SentimentTimeline)
	}
	if len(result.TalkStatChart) == 0 {
		result.TalkStatChart = projectTalkStatChart(result.TalkStats)
	}

	return nil
}

var (
	clockPattern   = regexp.MustCompile(`^\d+:\d{2}(:\d{2})?$`)
	minSecPattern  = regexp.MustCompile(`(\d+)\D+(\d{1,2})`)
	numericPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// NormalizeTimestamp converts a timestamp into M:SS form on a best-effort
// basis. Already well-formed clock values pass through unchanged, bare
// numbers are treated as seconds, and anything unrecognizable is returned
// as-is rather than dropped.
func NormalizeTimestamp(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}

	if clockPattern.MatchString(ts) {
		return ts
	}

	if numericPattern.MatchString(ts) {
		secs, err := strconv.ParseFloat(ts, 64)
		if err == nil {
			return secondsToClock(int(secs))
		}
	}

	// Loose minute/second pair, e.g. "2m30s" or "at 1 min 05".
	if m := minSecPattern.FindStringSubmatch(ts); m != nil {
		mins, err1 := strconv.Atoi(m[1])
		secs, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil && secs < 60 {
			return fmt.Sprintf("%d:%02d", mins, secs)
		}
	}

	return ts
}

func secondsToClock(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// parseDurationSeconds reads a mm:ss or hh:mm:ss duration. Unparseable
// durations yield zero, which downstream derivations guard against.
func parseDurationSeconds(duration string) int {
	parts := strings.Split(strings.TrimSpace(duration), ":")
	switch len(parts) {
	case 2:
		mins, err1 := strconv.Atoi(parts[0])
		secs, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0
		}
		return mins*60 + secs
	case 3:
		hours, err1 := strconv.Atoi(parts[0])
		mins, err2 := strconv.Atoi(parts[1])
		secs, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0
		}
		return hours*3600 + mins*60 + secs
	default:
		return 0
	}
}

func deriveQuestionsPerMinute(totalQuestions, durationSeconds int) float64 {
	if totalQuestions <= 0 || durationSeconds <= 0 {
		return 0
	}
	return float64(totalQuestions) / (float64(durationSeconds) / 60.0)
}

// normalizeTalkStatShares rescales participant percentages so they sum to
// 100. A zero sum has nothing to rescale and is left alone.
func normalizeTalkStatShares(stats []entities.RawTalkStat) {
	if len(stats) == 0 {
		return
	}
	var sum float64
	for _, s := range stats {
		sum += s.Percentage
	}
	if sum <= 0 || math.Abs(sum-100) <= 0.5 {
		return
	}
	factor := 100 / sum
	for i := range stats {
		stats[i].Percentage *= factor
	}
}

// computeTalkRatio returns the sales rep's share of the conversation from
// the per-participant stats. Role matching is loose; when no rep-like role
// exists the first participant is assumed to be the seller.
func computeTalkRatio(stats []entities.RawTalkStat) float64 {
	if len(stats) == 0 {
		return 0
	}

	var repShare float64
	var found bool
	for _, s := range stats {
		role := strings.ToLower(s.Role)
		if strings.Contains(role, "rep") ||
			strings.Contains(role, "sales") ||
			strings.Contains(role, "seller") ||
			strings.Contains(role, "account") ||
			strings.Contains(role, "ae") {
			repShare += s.Percentage
			found = true
		}
	}
	if found {
		return repShare
	}
	return stats[0].Percentage
}

func projectSentimentChart(timeline []entities.RawSentimentPoint) []entities.ChartPoint {
	points := make([]entities.ChartPoint, 0, len(timeline))
	for _, pt := range timeline {
		points = append(points, entities.ChartPoint{
			Label: string(pt.Timestamp),
			Value: pt.Score,
		})
	}
	return points
}

func projectTalkStatChart(stats []entities.RawTalkStat) []entities.ChartPoint {
	points := make([]entities.ChartPoint, 0, len(stats))
	for _, s := range stats {
		points = append(points, entities.ChartPoint{
			Label: s.Name,
			Value: s.Percentage,
		})
	}
	return points
}
