package analysis

import (
	"testing"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

func TestNormalizeTimestamp(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"90", "1:30"},
		{"0", "0:00"},
		{"125", "2:05"},
		{"2:05", "2:05"},
		{"12:34", "12:34"},
		{"1:02:03", "1:02:03"},
		{"2m30s", "2:30"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeTimestamp(c.in); got != c.want {
			t.Errorf("NormalizeTimestamp(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClassifyObjection(t *testing.T) {
	cases := []struct {
		text string
		want entities.ObjectionCategory
	}{
		{"This is too expensive for us", entities.ObjectionCategoryPrice},
		{"Maybe next quarter, we're too busy right now", entities.ObjectionCategoryTiming},
		{"We got burned by a vendor before, need references", entities.ObjectionCategoryTrustRisk},
		{"We're already using a competitor for this", entities.ObjectionCategoryCompetition},
		{"I need my boss to approve this", entities.ObjectionCategoryStakeholders},
		{"Does your API integrate with our infrastructure?", entities.ObjectionCategoryTechnical},
		{"The onboarding and rollout worry me", entities.ObjectionCategoryImplementation},
		{"I don't see the ROI here", entities.ObjectionCategoryValue},
		{"Hmm, let me think about it", entities.ObjectionCategoryOthers},
	}
	for _, c := range cases {
		if got := ClassifyObjection(c.text); got != c.want {
			t.Errorf("ClassifyObjection(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestClassifyObjection_PriorityOrder(t *testing.T) {
	// Text matching both PRICE and COMPETITION keywords resolves to PRICE
	// because the rule table is evaluated in priority order.
	got := ClassifyObjection("The competitor is cheaper, your pricing is too high")
	if got != entities.ObjectionCategoryPrice {
		t.Fatalf("expected PRICE to win over COMPETITION, got %s", got)
	}
}

func TestNormalize_ObjectionDefaults(t *testing.T) {
	result := &entities.CallAnalysisResult{
		Summary:  "call summary",
		Duration: "10:00",
		Objections: []entities.RawObjection{
			{Text: "too expensive", Effectiveness: 0.9},
			{Text: "need my manager's sign-off", Effectiveness: 0.5},
		},
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	first := result.Objections[0]
	if first.ID != "obj-1" {
		t.Errorf("expected obj-1, got %q", first.ID)
	}
	if first.Category != string(entities.ObjectionCategoryPrice) {
		t.Errorf("expected PRICE, got %q", first.Category)
	}
	if first.ColorTag != ColorTagFor(entities.ObjectionCategoryPrice) {
		t.Errorf("expected PRICE color tag, got %q", first.ColorTag)
	}
	if first.Success == nil || !*first.Success {
		t.Error("effectiveness 0.9 should backfill success=true")
	}

	second := result.Objections[1]
	if second.ID != "obj-2" {
		t.Errorf("expected obj-2, got %q", second.ID)
	}
	if second.Category != string(entities.ObjectionCategoryStakeholders) {
		t.Errorf("expected STAKEHOLDERS, got %q", second.Category)
	}
	if second.Success == nil || *second.Success {
		t.Error("effectiveness 0.5 should backfill success=false")
	}
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	success := false
	qpm := 7.5
	result := &entities.CallAnalysisResult{
		Summary:            "call summary",
		Duration:           "10:00",
		QuestionsPerMinute: &qpm,
		Objections: []entities.RawObjection{
			{
				ID:            "custom-id",
				Text:          "too expensive",
				Effectiveness: 0.95,
				Category:      string(entities.ObjectionCategoryValue),
				Success:       &success,
			},
		},
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	obj := result.Objections[0]
	if obj.ID != "custom-id" {
		t.Errorf("explicit id overwritten: %q", obj.ID)
	}
	if obj.Category != string(entities.ObjectionCategoryValue) {
		t.Errorf("explicit category overwritten: %q", obj.Category)
	}
	if obj.Success == nil || *obj.Success {
		t.Error("explicit success flag overwritten")
	}
	if *result.QuestionsPerMinute != 7.5 {
		t.Errorf("explicit QPM overwritten: %v", *result.QuestionsPerMinute)
	}
}

func TestNormalize_DerivesQuestionsPerMinute(t *testing.T) {
	result := &entities.CallAnalysisResult{
		Summary:        "call summary",
		Duration:       "04:00",
		TotalQuestions: 12,
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if result.QuestionsPerMinute == nil {
		t.Fatal("expected QPM to be derived")
	}
	if *result.QuestionsPerMinute != 3.0 {
		t.Fatalf("expected 3.0 questions/minute, got %v", *result.QuestionsPerMinute)
	}
}

func TestNormalize_QPMZeroDurationGuard(t *testing.T) {
	result := &entities.CallAnalysisResult{
		Summary:        "call summary",
		Duration:       "garbage",
		TotalQuestions: 12,
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result.QuestionsPerMinute == nil || *result.QuestionsPerMinute != 0 {
		t.Fatal("unparseable duration should yield QPM 0, not a division error")
	}
}

func TestNormalize_TalkRatioFromStats(t *testing.T) {
	result := &entities.CallAnalysisResult{
		Summary:  "call summary",
		Duration: "10:00",
		TalkStats: []entities.RawTalkStat{
			{Name: "Dana", Role: "Sales Rep", Percentage: 62.5},
			{Name: "Kim", Role: "Prospect", Percentage: 37.5},
		},
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result.TalkRatio != 62.5 {
		t.Fatalf("expected talk ratio 62.5 from rep stats, got %v", result.TalkRatio)
	}
}

func TestNormalize_TalkRatioNeverEvenSplitPlaceholder(t *testing.T) {
	// No rep-like role: ratio falls back to the first participant's share,
	// never to a synthetic 50/50.
	result := &entities.CallAnalysisResult{
		Summary:  "call summary",
		Duration: "10:00",
		TalkStats: []entities.RawTalkStat{
			{Name: "Dana", Role: "Host", Percentage: 71},
			{Name: "Kim", Role: "Guest", Percentage: 29},
		},
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result.TalkRatio != 71 {
		t.Fatalf("expected talk ratio 71, got %v", result.TalkRatio)
	}
}

func TestNormalize_RescalesTalkStatShares(t *testing.T) {
	result := &entities.CallAnalysisResult{
		Summary:  "call summary",
		Duration: "10:00",
		TalkStats: []entities.RawTalkStat{
			{Name: "Dana", Role: "Sales Rep", Percentage: 30},
			{Name: "Kim", Role: "Prospect", Percentage: 30},
		},
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	var sum float64
	for _, s := range result.TalkStats {
		sum += s.Percentage
	}
	if sum < 99.5 || sum > 100.5 {
		t.Fatalf("expected shares to sum to 100 after rescaling, got %v", sum)
	}
	if result.TalkStats[0].Percentage != 50 || result.TalkStats[1].Percentage != 50 {
		t.Fatalf("expected 30/30 to rescale to 50/50, got %v/%v",
			result.TalkStats[0].Percentage, result.TalkStats[1].Percentage)
	}
	// Talk ratio derives from the rescaled shares.
	if result.TalkRatio != 50 {
		t.Fatalf("expected talk ratio 50, got %v", result.TalkRatio)
	}
}

func TestNormalize_LeavesConsistentSharesAlone(t *testing.T) {
	result := &entities.CallAnalysisResult{
		Summary:  "call summary",
		Duration: "10:00",
		TalkStats: []entities.RawTalkStat{
			{Name: "Dana", Role: "Sales Rep", Percentage: 58.2},
			{Name: "Kim", Role: "Prospect", Percentage: 41.8},
		},
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result.TalkStats[0].Percentage != 58.2 {
		t.Fatalf("shares summing to 100 must not be touched, got %v", result.TalkStats[0].Percentage)
	}
}

func TestNormalize_ChartProjections(t *testing.T) {
	result := &entities.CallAnalysisResult{
		Summary:  "call summary",
		Duration: "10:00",
		SentimentTimeline: []entities.RawSentimentPoint{
			{Timestamp: "30", Score: 0.4},
			{Timestamp: "90", Score: 0.8},
		},
		TalkStats: []entities.RawTalkStat{
			{Name: "Dana", Role: "Sales Rep", Percentage: 60},
			{Name: "Kim", Role: "Prospect", Percentage: 40},
		},
	}

	if err := NewNormalizer().Normalize(result); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if len(result.SentimentChart) != 2 {
		t.Fatalf("expected 2 sentiment chart points, got %d", len(result.SentimentChart))
	}
	if result.SentimentChart[1].Label != "1:30" || result.SentimentChart[1].Value != 0.8 {
		t.Errorf("unexpected chart point: %+v", result.SentimentChart[1])
	}
	if len(result.TalkStatChart) != 2 {
		t.Fatalf("expected 2 talk stat chart points, got %d", len(result.TalkStatChart))
	}
	if result.TalkStatChart[0].Label != "Dana" || result.TalkStatChart[0].Value != 60 {
		t.Errorf("unexpected chart point: %+v", result.TalkStatChart[0])
	}
}

func TestNormalize_IsDeterministic(t *testing.T) {
	build := func() *entities.CallAnalysisResult {
		return &entities.CallAnalysisResult{
			Summary:        "call summary",
			Duration:       "05:00",
			TotalQuestions: 10,
			Objections: []entities.RawObjection{
				{Text: "too expensive", Timestamp: "90", Effectiveness: 0.8},
			},
		}
	}

	a, b := build(), build()
	n := NewNormalizer()
	if err := n.Normalize(a); err != nil {
		t.Fatal(err)
	}
	if err := n.Normalize(b); err != nil {
		t.Fatal(err)
	}

	if a.Objections[0] != b.Objections[0] {
		// Success pointers differ by address; compare values instead.
		if *a.Objections[0].Success != *b.Objections[0].Success ||
			a.Objections[0].Category != b.Objections[0].Category ||
			a.Objections[0].Timestamp != b.Objections[0].Timestamp {
			t.Fatal("normalization is not deterministic")
		}
	}
	if *a.QuestionsPerMinute != *b.QuestionsPerMinute {
		t.Fatal("QPM derivation is not deterministic")
	}
}
