package entities

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactStatus tracks the per-artifact pipeline lifecycle. PENDING is the
// only non-terminal state; SUCCESS and FAIL are terminal for the run that
// produced them.
type ArtifactStatus string

const (
	ArtifactStatusPending ArtifactStatus = "PENDING"
	ArtifactStatusSuccess ArtifactStatus = "SUCCESS"
	ArtifactStatusFail    ArtifactStatus = "FAIL"
)

// ArtifactKind distinguishes uploaded documents from inline text
type ArtifactKind string

const (
	ArtifactKindFile ArtifactKind = "FILE"
	ArtifactKindText ArtifactKind = "TEXT"
)

// Artifact represents a submitted sales-call asset. The row is created
// PENDING before any pipeline work starts so the caller always has a durable
// handle; status is mutated only by the persistence coordinator.
type Artifact struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	ContentRef     string         `json:"content_ref" gorm:"type:text;not null"`
	Kind           ArtifactKind   `json:"kind" gorm:"type:varchar(10);not null;index"`
	DisplayName    *string        `json:"display_name,omitempty" gorm:"type:varchar(255)"`
	OwnerID        uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID     `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	Status         ArtifactStatus `json:"status" gorm:"type:varchar(10);not null;index;default:'PENDING'"`

	// 1:0-or-1; uniqueness on call_analyses.artifact_id enforces it.
	Analysis *CallAnalysis `json:"analysis,omitempty" gorm:"foreignKey:ArtifactID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Artifact) TableName() string {
	return "artifacts"
}

// NewArtifact creates a PENDING artifact for a submission
func NewArtifact(contentRef string, kind ArtifactKind, ownerID uuid.UUID) *Artifact {
	return &Artifact{
		ID:         uuid.New(),
		ContentRef: contentRef,
		Kind:       kind,
		OwnerID:    ownerID,
		Status:     ArtifactStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// IsTerminal reports whether the artifact reached a final pipeline state
func (a *Artifact) IsTerminal() bool {
	return a.Status == ArtifactStatusSuccess || a.Status == ArtifactStatusFail
}
