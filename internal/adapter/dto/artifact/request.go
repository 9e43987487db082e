package artifact

// SubmitArtifactRequest represents one artifact submission. For TEXT the
// content ref is the transcript itself; for FILE it is an object-store key.
type SubmitArtifactRequest struct {
	ContentRef     string  `json:"content_ref" validate:"required,min=1"`
	Kind           string  `json:"kind" validate:"required,oneof=FILE TEXT"`
	OwnerID        string  `json:"owner_id" validate:"required,uuid"`
	OrganizationID *string `json:"organization_id,omitempty" validate:"omitempty,uuid"`
	DisplayName    *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=255"`
}

// ListArtifactsRequest represents query parameters for listing artifacts
type ListArtifactsRequest struct {
	OwnerID         string  `query:"owner_id" validate:"required,uuid"`
	OrganizationID  *string `query:"organization_id" validate:"omitempty,uuid"`
	Status          *string `query:"status" validate:"omitempty,oneof=PENDING SUCCESS FAIL"`
	IncludeAnalysis bool    `query:"include_analysis"`
	Page            int     `query:"page" validate:"omitempty,min=1"`
	PageSize        int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}
