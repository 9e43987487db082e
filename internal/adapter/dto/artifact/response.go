package artifact

import (
	"time"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// ArtifactResponse is the API shape of an artifact, with its analysis when
// loaded.
type ArtifactResponse struct {
	ID             string                 `json:"id"`
	ContentRef     string                 `json:"content_ref"`
	Kind           string                 `json:"kind"`
	DisplayName    *string                `json:"display_name,omitempty"`
	OwnerID        string                 `json:"owner_id"`
	OrganizationID *string                `json:"organization_id,omitempty"`
	Status         string                 `json:"status"`
	Analysis       *entities.CallAnalysis `json:"analysis,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ListArtifactsResponse wraps a page of artifacts
type ListArtifactsResponse struct {
	Artifacts []ArtifactResponse `json:"artifacts"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

// UploadResponse returns the object key to use as content_ref in a
// subsequent FILE submission.
type UploadResponse struct {
	ContentRef  string `json:"content_ref"`
	FileName    string `json:"file_name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// FromEntity converts an artifact entity to its response shape
func FromEntity(a *entities.Artifact) ArtifactResponse {
	resp := ArtifactResponse{
		ID:          a.ID.String(),
		ContentRef:  a.ContentRef,
		Kind:        string(a.Kind),
		DisplayName: a.DisplayName,
		OwnerID:     a.OwnerID.String(),
		Status:      string(a.Status),
		Analysis:    a.Analysis,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.OrganizationID != nil {
		orgID := a.OrganizationID.String()
		resp.OrganizationID = &orgID
	}
	return resp
}
