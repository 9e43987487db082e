package analysis

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/errors"
	"github.com/callscopehq/callscope/internal/adapter/repository"
	"github.com/callscopehq/callscope/internal/domain/entities"
	domainrepo "github.com/callscopehq/callscope/internal/domain/repositories"
	"github.com/callscopehq/callscope/pkg/retry"
)

// Classifier produces a structured analysis completion for a transcript
type Classifier interface {
	GenerateCallAnalysis(ctx context.Context, transcript string) (string, error)
}

// SubmitInput carries one artifact submission into the pipeline
type SubmitInput struct {
	ContentRef     string
	Kind           entities.ArtifactKind
	OwnerID        uuid.UUID
	OrganizationID *uuid.UUID
	DisplayName    *string
}

// Service runs the transcript analysis pipeline and serves artifact reads
type Service interface {
	SubmitArtifact(ctx context.Context, input SubmitInput) (*entities.Artifact, error)
	GetArtifact(ctx context.Context, id uuid.UUID) (*entities.Artifact, error)
	ListArtifacts(ctx context.Context, filters domainrepo.ArtifactFilters) ([]entities.Artifact, int64, error)
}

type service struct {
	artifactRepo domainrepo.ArtifactRepository
	analysisRepo domainrepo.AnalysisRepository
	extractor    *Extractor
	classifier   Classifier
	parser       *Parser
	normalizer   *Normalizer
	retryPolicy  retry.Policy
	logger       *zap.Logger
}

// NewService wires the pipeline stages together
func NewService(
	artifactRepo domainrepo.ArtifactRepository,
	analysisRepo domainrepo.AnalysisRepository,
	extractor *Extractor,
	classifier Classifier,
	retryPolicy retry.Policy,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		artifactRepo: artifactRepo,
		analysisRepo: analysisRepo,
		extractor:    extractor,
		classifier:   classifier,
		parser:       NewParser(),
		normalizer:   NewNormalizer(),
		retryPolicy:  retryPolicy,
		logger:       logger,
	}
}

// SubmitArtifact creates a PENDING artifact and runs the pipeline to a
// terminal state. The artifact row exists before any pipeline work starts,
// so even a failed run leaves a durable, queryable record. The returned
// artifact always reflects the terminal status.
func (s *service) SubmitArtifact(ctx context.Context, input SubmitInput) (*entities.Artifact, error) {
	if input.ContentRef == "" {
		return nil, errors.ErrInvalidArgument("content_ref is required")
	}
	if input.Kind != entities.ArtifactKindFile && input.Kind != entities.ArtifactKindText {
		return nil, errors.ErrInvalidArgument("kind must be FILE or TEXT")
	}
	if input.OwnerID == uuid.Nil {
		return nil, errors.ErrInvalidArgument("owner_id is required")
	}

	artifact := entities.NewArtifact(input.ContentRef, input.Kind, input.OwnerID)
	artifact.OrganizationID = input.OrganizationID
	artifact.DisplayName = input.DisplayName

	if err := s.artifactRepo.Create(ctx, artifact); err != nil {
		s.logger.Error("❌ Failed to create artifact", zap.Error(err))
		return nil, errors.ErrDBQueryFailed("create artifact", err)
	}

	s.logger.Info("📥 Artifact submitted",
		zap.String("artifact_id", artifact.ID.String()),
		zap.String("kind", string(artifact.Kind)),
	)

	analysis, err := s.runPipeline(ctx, artifact)
	if err != nil {
		s.markFailed(ctx, artifact)
		return artifact, err
	}

	artifact.Status = entities.ArtifactStatusSuccess
	artifact.Analysis = analysis

	s.logger.Info("✅ Artifact analysis completed",
		zap.String("artifact_id", artifact.ID.String()),
		zap.Int("objections", len(analysis.Objections)),
	)
	return artifact, nil
}

// runPipeline executes extract, classify, parse, normalize, persist. Each
// stage failure maps to its own error code; only persistence retries.
func (s *service) runPipeline(ctx context.Context, artifact *entities.Artifact) (*entities.CallAnalysis, error) {
	transcript, err := s.extractor.Extract(ctx, artifact)
	if err != nil {
		s.logger.Error("❌ Extraction failed",
			zap.String("artifact_id", artifact.ID.String()),
			zap.Error(err),
		)
		return nil, errors.ErrExtractionFailed(err)
	}

	// One classification call per run. A flaky completion is not retried;
	// the caller resubmits instead.
	raw, err := s.classifier.GenerateCallAnalysis(ctx, transcript)
	if err != nil {
		s.logger.Error("❌ Classification failed",
			zap.String("artifact_id", artifact.ID.String()),
			zap.Error(err),
		)
		return nil, errors.ErrClassificationFailed(err)
	}

	result, err := s.parser.ParseResponse(raw)
	if err != nil {
		s.logger.Error("❌ Response rejected by schema check",
			zap.String("artifact_id", artifact.ID.String()),
			zap.Error(err),
		)
		return nil, errors.ErrClassificationFailed(err)
	}

	if err := s.normalizer.Normalize(result); err != nil {
		return nil, errors.ErrNormalizationFailed(err)
	}

	analysis := buildCallAnalysis(artifact.ID, result)

	err = retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		saveErr := s.analysisRepo.Save(ctx, analysis)
		if stderrors.Is(saveErr, repository.ErrStatusConflict) {
			// The artifact left PENDING under us; retrying cannot help.
			return retry.Permanent(saveErr)
		}
		return saveErr
	})
	if err != nil {
		s.logger.Error("❌ Persistence failed after retries",
			zap.String("artifact_id", artifact.ID.String()),
			zap.Error(err),
		)
		return nil, errors.ErrDBTransactionFailed(err)
	}

	return analysis, nil
}

// markFailed flips the artifact to FAIL. This is the pipeline's hard
// guarantee: no run ends with a PENDING artifact. The flip itself is
// best-effort logged; a failure here leaves PENDING visible for operators.
func (s *service) markFailed(ctx context.Context, artifact *entities.Artifact) {
	// The pipeline may have failed because the request context was
	// canceled; the FAIL flip must still land, so it runs detached from
	// that cancellation under its own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.artifactRepo.MarkFailed(ctx, artifact.ID); err != nil {
		s.logger.Error("❌ Failed to mark artifact FAIL",
			zap.String("artifact_id", artifact.ID.String()),
			zap.Error(err),
		)
		return
	}
	artifact.Status = entities.ArtifactStatusFail
	s.logger.Warn("⚠️ Artifact marked FAIL", zap.String("artifact_id", artifact.ID.String()))
}

func (s *service) GetArtifact(ctx context.Context, id uuid.UUID) (*entities.Artifact, error) {
	artifact, err := s.artifactRepo.FindByID(ctx, id, true)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("find artifact", err)
	}
	if artifact == nil {
		return nil, errors.ErrArtifactNotFound(id.String())
	}
	return artifact, nil
}

func (s *service) ListArtifacts(ctx context.Context, filters domainrepo.ArtifactFilters) ([]entities.Artifact, int64, error) {
	artifacts, total, err := s.artifactRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, errors.ErrDBQueryFailed("list artifacts", err)
	}
	return artifacts, total, nil
}
