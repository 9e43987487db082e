package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/callscopehq/callscope/internal/adapter/repository"
	"github.com/callscopehq/callscope/internal/domain/entities"
	domainrepo "github.com/callscopehq/callscope/internal/domain/repositories"
	"github.com/callscopehq/callscope/internal/infrastructure/database"
	"github.com/callscopehq/callscope/pkg/retry"
)

func listFilters(owner uuid.UUID, status entities.ArtifactStatus) domainrepo.ArtifactFilters {
	return domainrepo.ArtifactFilters{OwnerID: owner, Status: &status, Limit: 10}
}

type stubClassifier struct {
	response string
	err      error
	calls    int
}

func (s *stubClassifier) GenerateCallAnalysis(ctx context.Context, transcript string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T, db *gorm.DB, classifier Classifier) Service {
	t.Helper()
	artifactRepo := repository.NewArtifactRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db, repository.AnalysisTxConfig{
		Slots:   2,
		MaxWait: time.Second,
		Timeout: 5 * time.Second,
	})
	extractor := NewExtractor(&fakeStore{}, 0, 0, nil)
	policy := retry.Policy{MaxRetries: 2, BaseDelay: time.Millisecond}
	return NewService(artifactRepo, analysisRepo, extractor, classifier, policy, nil)
}

const classifierResponse = `{
	"title": "Discovery call",
	"date": "2025-03-14",
	"duration": "04:00",
	"participants": ["Dana", "Kim"],
	"summary": "Prospect pushed back on pricing but agreed to a follow-up.",
	"overall_sentiment": 0.6,
	"key_insights": ["Quarterly budget cycle"],
	"recommendations": ["Send ROI deck"],
	"talk_ratio": 0,
	"total_questions": 12,
	"topic_coherence": 0.8,
	"objections": [
		{"text": "Honestly this feels too expensive for our team", "timestamp": 90, "effectiveness": 0.8}
	],
	"sentiment_timeline": [
		{"timestamp": "0:30", "score": 0.5},
		{"timestamp": "2:00", "score": 0.7}
	],
	"talk_stats": [
		{"name": "Dana", "role": "Sales Rep", "word_count": 2100, "percentage": 58},
		{"name": "Kim", "role": "Prospect", "word_count": 1500, "percentage": 42}
	]
}`

func TestSubmitArtifact_SuccessfulPipeline(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &stubClassifier{response: classifierResponse})

	artifact, err := svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "Dana: Hi Kim.\nKim: This feels too expensive.",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, artifact)
	require.Equal(t, entities.ArtifactStatusSuccess, artifact.Status)
	require.NotNil(t, artifact.Analysis)

	// The status flip is persisted, not just in-memory.
	var stored entities.Artifact
	require.NoError(t, db.First(&stored, "id = ?", artifact.ID).Error)
	require.Equal(t, entities.ArtifactStatusSuccess, stored.Status)

	// Normalization filled objection defaults before persistence.
	var objections []entities.Objection
	require.NoError(t, db.Find(&objections, "analysis_id = ?", artifact.Analysis.ID).Error)
	require.Len(t, objections, 1)
	require.Equal(t, entities.ObjectionCategoryPrice, objections[0].Category)
	require.Equal(t, ColorTagFor(entities.ObjectionCategoryPrice), objections[0].ColorTag)
	require.Equal(t, "obj-1", objections[0].ObjectionRef)
	require.True(t, objections[0].Success)
	require.Equal(t, "1:30", objections[0].Timestamp)

	// 12 questions over 4 minutes.
	require.InDelta(t, 3.0, artifact.Analysis.QuestionsPerMinute, 0.001)
	// Talk ratio computed from the rep's stats, not defaulted.
	require.InDelta(t, 58.0, artifact.Analysis.TalkRatio, 0.001)

	var sentiment []entities.SentimentEntry
	require.NoError(t, db.Order("position ASC").Find(&sentiment, "analysis_id = ?", artifact.Analysis.ID).Error)
	require.Len(t, sentiment, 2)
	require.Equal(t, 0, sentiment[0].Position)
	require.Equal(t, "0:30", sentiment[0].Timestamp)

	// Persisted participant shares always sum to ~100.
	var stats []entities.ParticipantTalkStat
	require.NoError(t, db.Find(&stats, "analysis_id = ?", artifact.Analysis.ID).Error)
	var shareSum float64
	for _, s := range stats {
		shareSum += s.Percentage
	}
	require.InDelta(t, 100.0, shareSum, 0.5)
}

func TestSubmitArtifact_RescalesDriftingTalkShares(t *testing.T) {
	db := newTestDB(t)
	// Shares sum to 60; persistence must still satisfy the ~100 invariant.
	response := strings.Replace(classifierResponse, `"percentage": 58`, `"percentage": 30`, 1)
	response = strings.Replace(response, `"percentage": 42`, `"percentage": 30`, 1)
	svc := newTestService(t, db, &stubClassifier{response: response})

	artifact, err := svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "transcript",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, entities.ArtifactStatusSuccess, artifact.Status)

	var stats []entities.ParticipantTalkStat
	require.NoError(t, db.Find(&stats, "analysis_id = ?", artifact.Analysis.ID).Error)
	require.Len(t, stats, 2)
	var shareSum float64
	for _, s := range stats {
		shareSum += s.Percentage
	}
	require.InDelta(t, 100.0, shareSum, 0.5)
}

func TestSubmitArtifact_InvalidResponseMarksFail(t *testing.T) {
	db := newTestDB(t)
	// Response missing the required summary field.
	svc := newTestService(t, db, &stubClassifier{response: `{"duration": "04:00"}`})

	artifact, err := svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "some transcript",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.Error(t, err)
	require.NotNil(t, artifact, "the FAIL artifact handle must still be returned")
	require.Equal(t, entities.ArtifactStatusFail, artifact.Status)

	var stored entities.Artifact
	require.NoError(t, db.First(&stored, "id = ?", artifact.ID).Error)
	require.Equal(t, entities.ArtifactStatusFail, stored.Status)

	// No partial analysis rows survive a failed run.
	var count int64
	require.NoError(t, db.Model(&entities.CallAnalysis{}).Where("artifact_id = ?", artifact.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmitArtifact_ClassifierErrorMarksFail(t *testing.T) {
	db := newTestDB(t)
	classifier := &stubClassifier{err: errors.New("service unavailable")}
	svc := newTestService(t, db, classifier)

	artifact, err := svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "some transcript",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.Error(t, err)
	require.Equal(t, entities.ArtifactStatusFail, artifact.Status)
	// Exactly one classification call per run, no retry on the external service.
	require.Equal(t, 1, classifier.calls)
}

type cancelingClassifier struct {
	cancel context.CancelFunc
}

func (c *cancelingClassifier) GenerateCallAnalysis(ctx context.Context, transcript string) (string, error) {
	c.cancel()
	return "", ctx.Err()
}

func TestSubmitArtifact_CanceledRequestStillMarksFail(t *testing.T) {
	db := newTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newTestService(t, db, &cancelingClassifier{cancel: cancel})

	artifact, err := svc.SubmitArtifact(ctx, SubmitInput{
		ContentRef: "transcript",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.Error(t, err)
	require.NotNil(t, artifact)

	// The caller's context is dead, but the artifact must not be stranded
	// in PENDING.
	var stored entities.Artifact
	require.NoError(t, db.First(&stored, "id = ?", artifact.ID).Error)
	require.Equal(t, entities.ArtifactStatusFail, stored.Status)
}

func TestSubmitArtifact_ValidatesInput(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &stubClassifier{response: classifierResponse})

	_, err := svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.Error(t, err)

	_, err = svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "text",
		Kind:       entities.ArtifactKind("AUDIO"),
		OwnerID:    uuid.New(),
	})
	require.Error(t, err)

	// No artifact rows were created for rejected submissions.
	var count int64
	require.NoError(t, db.Model(&entities.Artifact{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetArtifact_IncludesAnalysis(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &stubClassifier{response: classifierResponse})

	submitted, err := svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "transcript",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.NoError(t, err)

	fetched, err := svc.GetArtifact(context.Background(), submitted.ID)
	require.NoError(t, err)
	require.Equal(t, entities.ArtifactStatusSuccess, fetched.Status)
	require.NotNil(t, fetched.Analysis)
	require.Len(t, fetched.Analysis.Objections, 1)
	require.Len(t, fetched.Analysis.SentimentEntries, 2)
}

func TestGetArtifact_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &stubClassifier{response: classifierResponse})

	_, err := svc.GetArtifact(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestListArtifacts_FiltersByOwnerAndStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &stubClassifier{response: classifierResponse})

	owner := uuid.New()
	_, err := svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "transcript one",
		Kind:       entities.ArtifactKindText,
		OwnerID:    owner,
	})
	require.NoError(t, err)

	// Someone else's artifact must not leak into the listing.
	_, err = svc.SubmitArtifact(context.Background(), SubmitInput{
		ContentRef: "transcript two",
		Kind:       entities.ArtifactKindText,
		OwnerID:    uuid.New(),
	})
	require.NoError(t, err)

	artifacts, total, err := svc.ListArtifacts(context.Background(), listFilters(owner, entities.ArtifactStatusSuccess))
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, artifacts, 1)
	require.Equal(t, owner, artifacts[0].OwnerID)
}
