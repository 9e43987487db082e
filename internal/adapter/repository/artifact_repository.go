package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callscopehq/callscope/internal/domain/entities"
	domainrepo "github.com/callscopehq/callscope/internal/domain/repositories"
)

type artifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository creates an artifact repository backed by GORM
func NewArtifactRepository(db *gorm.DB) domainrepo.ArtifactRepository {
	return &artifactRepository{db: db}
}

func (r *artifactRepository) Create(ctx context.Context, artifact *entities.Artifact) error {
	if artifact == nil {
		return errors.New("artifact cannot be nil")
	}
	return r.db.WithContext(ctx).Create(artifact).Error
}

func (r *artifactRepository) FindByID(ctx context.Context, id uuid.UUID, includeAnalysis bool) (*entities.Artifact, error) {
	var artifact entities.Artifact
	query := r.db.WithContext(ctx)
	if includeAnalysis {
		query = query.
			Preload("Analysis").
			Preload("Analysis.Objections").
			Preload("Analysis.SentimentEntries", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Preload("Analysis.TalkStats")
	}
	if err := query.Where("id = ?", id).First(&artifact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

func (r *artifactRepository) List(ctx context.Context, filters domainrepo.ArtifactFilters) ([]entities.Artifact, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Artifact{}).
		Where("owner_id = ?", filters.OwnerID)

	if filters.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filters.OrganizationID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if filters.IncludeAnalysis {
		query = query.
			Preload("Analysis").
			Preload("Analysis.Objections").
			Preload("Analysis.SentimentEntries", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Preload("Analysis.TalkStats")
	}

	var artifacts []entities.Artifact
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filters.Offset).
		Find(&artifacts).Error; err != nil {
		return nil, 0, err
	}
	return artifacts, total, nil
}

// MarkFailed flips a PENDING artifact to FAIL. Terminal states are never
// overwritten; flipping an already-terminal artifact is a no-op.
func (r *artifactRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.Artifact{}).
		Where("id = ? AND status = ?", id, entities.ArtifactStatusPending).
		Updates(map[string]interface{}{
			"status":     entities.ArtifactStatusFail,
			"updated_at": time.Now(),
		}).Error
}

func (r *artifactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entities.Artifact{}, "id = ?", id).Error
}
