package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/callscopehq/callscope/internal/domain/entities"
	domainrepo "github.com/callscopehq/callscope/internal/domain/repositories"
)

const childBatchSize = 100

// ErrTxSlotWait is returned when no transaction slot frees up within the
// configured wait budget.
var ErrTxSlotWait = errors.New("transaction slot wait budget exceeded")

// ErrStatusConflict is returned when the artifact is not PENDING at commit
// time, i.e. the SUCCESS transition would be invalid.
var ErrStatusConflict = errors.New("artifact is not in PENDING state")

// AnalysisTxConfig bounds the fan-out write so pipelines cannot hold the
// pool indefinitely under load.
type AnalysisTxConfig struct {
	Slots   int           // max concurrent analysis transactions
	MaxWait time.Duration // budget for acquiring a slot
	Timeout time.Duration // per-transaction context timeout
}

// DefaultAnalysisTxConfig mirrors the pipeline defaults
func DefaultAnalysisTxConfig() AnalysisTxConfig {
	return AnalysisTxConfig{Slots: 8, MaxWait: 10 * time.Second, Timeout: 15 * time.Second}
}

type analysisRepository struct {
	db      *gorm.DB
	cfg     AnalysisTxConfig
	txSlots chan struct{}
}

// NewAnalysisRepository creates the analysis repository backed by GORM
func NewAnalysisRepository(db *gorm.DB, cfg AnalysisTxConfig) domainrepo.AnalysisRepository {
	if cfg.Slots <= 0 {
		cfg = DefaultAnalysisTxConfig()
	}
	return &analysisRepository{
		db:      db,
		cfg:     cfg,
		txSlots: make(chan struct{}, cfg.Slots),
	}
}

// Save writes the analysis row, all child rows and the artifact's
// PENDING→SUCCESS flip in one transaction. A failure anywhere rolls back
// every row, leaving the artifact PENDING for the caller's retry policy.
func (r *analysisRepository) Save(ctx context.Context, analysis *entities.CallAnalysis) error {
	if analysis == nil {
		return errors.New("analysis cannot be nil")
	}

	select {
	case r.txSlots <- struct{}{}:
	case <-time.After(r.cfg.MaxWait):
		return ErrTxSlotWait
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-r.txSlots }()

	txCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}

	// Children are created in explicit batches inside the transaction, not
	// through association autosave, so every row carries the analysis id.
	objections := analysis.Objections
	sentiment := analysis.SentimentEntries
	talkStats := analysis.TalkStats

	for i := range objections {
		if objections[i].ID == uuid.Nil {
			objections[i].ID = uuid.New()
		}
		objections[i].AnalysisID = analysis.ID
	}
	for i := range sentiment {
		if sentiment[i].ID == uuid.Nil {
			sentiment[i].ID = uuid.New()
		}
		sentiment[i].AnalysisID = analysis.ID
		sentiment[i].Position = i
	}
	for i := range talkStats {
		if talkStats[i].ID == uuid.Nil {
			talkStats[i].ID = uuid.New()
		}
		talkStats[i].AnalysisID = analysis.ID
	}

	return r.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(analysis).Error; err != nil {
			return fmt.Errorf("failed to create analysis row: %w", err)
		}

		if len(objections) > 0 {
			if err := tx.CreateInBatches(objections, childBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create objections: %w", err)
			}
		}
		if len(sentiment) > 0 {
			if err := tx.CreateInBatches(sentiment, childBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create sentiment entries: %w", err)
			}
		}
		if len(talkStats) > 0 {
			if err := tx.CreateInBatches(talkStats, childBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create talk stats: %w", err)
			}
		}

		// Guarded flip: only PENDING may become SUCCESS. Zero rows affected
		// means the artifact vanished or already reached a terminal state.
		result := tx.Model(&entities.Artifact{}).
			Where("id = ? AND status = ?", analysis.ArtifactID, entities.ArtifactStatusPending).
			Updates(map[string]interface{}{
				"status":     entities.ArtifactStatusSuccess,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark artifact success: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStatusConflict
		}
		return nil
	})
}

func (r *analysisRepository) FindByArtifactID(ctx context.Context, artifactID uuid.UUID) (*entities.CallAnalysis, error) {
	var analysis entities.CallAnalysis
	if err := r.db.WithContext(ctx).
		Preload("Objections").
		Preload("SentimentEntries", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("TalkStats").
		Where("artifact_id = ?", artifactID).
		First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analysis, nil
}
