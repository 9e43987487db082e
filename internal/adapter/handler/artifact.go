package handler

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/errors"
	artifactdto "github.com/callscopehq/callscope/internal/adapter/dto/artifact"
	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/usecase/analysis"
)

// ArtifactCache is the handler's view of the read-through cache for
// terminal artifacts.
type ArtifactCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// DocumentUploader stores uploaded documents for later FILE submissions
type DocumentUploader interface {
	UploadDocument(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

// Artifact handles artifact submission and retrieval endpoints
type Artifact struct {
	service  analysis.Service
	uploader DocumentUploader
	cache    ArtifactCache
	logger   *zap.Logger
}

// NewArtifactHandler creates the artifact handler. Uploader and cache are
// optional; nil disables the upload endpoint and caching respectively.
func NewArtifactHandler(service analysis.Service, uploader DocumentUploader, cache ArtifactCache, logger *zap.Logger) *Artifact {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Artifact{
		service:  service,
		uploader: uploader,
		cache:    cache,
		logger:   logger,
	}
}

// Submit accepts an artifact and runs the analysis pipeline synchronously.
// The response carries the terminal artifact; a pipeline failure still
// returns the FAIL artifact id in the error details.
func (h *Artifact) Submit(c echo.Context) error {
	var req artifactdto.SubmitArtifactRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("owner_id must be a valid UUID"))
	}

	input := analysis.SubmitInput{
		ContentRef:  req.ContentRef,
		Kind:        entities.ArtifactKind(req.Kind),
		OwnerID:     ownerID,
		DisplayName: req.DisplayName,
	}
	if req.OrganizationID != nil {
		orgID, err := uuid.Parse(*req.OrganizationID)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("organization_id must be a valid UUID"))
		}
		input.OrganizationID = &orgID
	}

	artifact, err := h.service.SubmitArtifact(c.Request().Context(), input)
	if err != nil {
		// Pipeline failures after row creation surface the artifact id so
		// the caller can still look up the FAIL record.
		var appErr errors.AppError
		if artifact != nil && stdErrors.As(err, &appErr) {
			return HandleError(h.logger, c, appErr.WithDetail("artifact_id", artifact.ID.String()))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, artifactdto.FromEntity(artifact))
}

// Get returns one artifact with its analysis. Terminal artifacts are served
// through the cache; PENDING is never cached because it can still change.
func (h *Artifact) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("id must be a valid UUID"))
	}

	ctx := c.Request().Context()
	cacheKey := "artifact:" + id.String()

	if h.cache != nil {
		if cached, ok, cacheErr := h.cache.Get(ctx, cacheKey); cacheErr == nil && ok {
			var resp artifactdto.ArtifactResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return HandleSuccess(h.logger, c, resp)
			}
		} else if cacheErr != nil {
			h.logger.Warn("⚠️ Cache read failed", zap.Error(cacheErr))
		}
	}

	artifact, err := h.service.GetArtifact(ctx, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := artifactdto.FromEntity(artifact)

	if h.cache != nil && artifact.IsTerminal() {
		if data, marshalErr := json.Marshal(resp); marshalErr == nil {
			if cacheErr := h.cache.Set(ctx, cacheKey, string(data)); cacheErr != nil {
				h.logger.Warn("⚠️ Cache write failed", zap.Error(cacheErr))
			}
		}
	}

	return HandleSuccess(h.logger, c, resp)
}

// List returns a page of the owner's artifacts
func (h *Artifact) List(c echo.Context) error {
	var req artifactdto.ListArtifactsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	filters, err := buildFilters(&req)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	artifacts, total, err := h.service.ListArtifacts(c.Request().Context(), filters)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	resp := artifactdto.ListArtifactsResponse{
		Artifacts: make([]artifactdto.ArtifactResponse, 0, len(artifacts)),
		Total:     total,
		Page:      page,
		PageSize:  filters.Limit,
	}
	for i := range artifacts {
		resp.Artifacts = append(resp.Artifacts, artifactdto.FromEntity(&artifacts[i]))
	}

	return HandleSuccess(h.logger, c, resp)
}

// Upload stores a document and returns the object key to submit as a FILE
// artifact's content_ref.
func (h *Artifact) Upload(c echo.Context) error {
	if h.uploader == nil {
		return HandleError(h.logger, c, errors.ErrInternal(fmt.Errorf("document storage is not configured")))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("multipart field 'file' is required"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("open upload", err))
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("uploads/%s%s", uuid.New().String(), filepath.Ext(fileHeader.Filename))
	ctx := c.Request().Context()

	if err := h.uploader.UploadDocument(ctx, objectName, src, fileHeader.Size, contentType); err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("upload document", err))
	}

	h.logger.Info("📦 Document uploaded",
		zap.String("object", objectName),
		zap.Int64("size", fileHeader.Size),
	)

	return HandleSuccess(h.logger, c, artifactdto.UploadResponse{
		ContentRef:  objectName,
		FileName:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: contentType,
	})
}
