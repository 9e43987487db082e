package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// ArtifactFilters narrows artifact listings
type ArtifactFilters struct {
	OwnerID         uuid.UUID
	OrganizationID  *uuid.UUID
	Status          *entities.ArtifactStatus
	IncludeAnalysis bool
	Limit           int
	Offset          int
}

// ArtifactRepository handles artifact row access. Status transitions go
// through the analysis repository's transactional save (SUCCESS) or
// MarkFailed (FAIL); read paths never mutate status.
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *entities.Artifact) error
	FindByID(ctx context.Context, id uuid.UUID, includeAnalysis bool) (*entities.Artifact, error)
	List(ctx context.Context, filters ArtifactFilters) ([]entities.Artifact, int64, error)
	MarkFailed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnalysisRepository persists a normalized analysis. Save writes the
// analysis row, every child row and the artifact's SUCCESS flip in one
// atomic transaction.
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *entities.CallAnalysis) error
	FindByArtifactID(ctx context.Context, artifactID uuid.UUID) (*entities.CallAnalysis, error)
}
