package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/callscopehq/callscope/errors"
	"github.com/callscopehq/callscope/internal/domain/entities"
	domainrepo "github.com/callscopehq/callscope/internal/domain/repositories"
	"github.com/callscopehq/callscope/internal/usecase/analysis"
	pkgvalidator "github.com/callscopehq/callscope/pkg/validator"
)

type stubService struct {
	submitArtifact *entities.Artifact
	submitErr      error
	getArtifact    *entities.Artifact
	getErr         error
	listArtifacts  []entities.Artifact
	listTotal      int64
}

func (s *stubService) SubmitArtifact(ctx context.Context, input analysis.SubmitInput) (*entities.Artifact, error) {
	return s.submitArtifact, s.submitErr
}

func (s *stubService) GetArtifact(ctx context.Context, id uuid.UUID) (*entities.Artifact, error) {
	return s.getArtifact, s.getErr
}

func (s *stubService) ListArtifacts(ctx context.Context, filters domainrepo.ArtifactFilters) ([]entities.Artifact, int64, error) {
	return s.listArtifacts, s.listTotal, nil
}

type memCache struct {
	values map[string]string
	gets   int
	sets   int
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string)}
}

func (m *memCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.gets++
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memCache) Set(ctx context.Context, key, value string) error {
	m.sets++
	m.values[key] = value
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = pkgvalidator.New()
	return e
}

func TestSubmit_Success(t *testing.T) {
	e := newEcho()
	artifact := entities.NewArtifact("transcript", entities.ArtifactKindText, uuid.New())
	artifact.Status = entities.ArtifactStatusSuccess
	h := NewArtifactHandler(&stubService{submitArtifact: artifact}, nil, nil, nil)

	body := `{"content_ref": "transcript", "kind": "TEXT", "owner_id": "` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/artifacts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Submit(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Data.Status != "SUCCESS" {
		t.Fatalf("unexpected status %q", resp.Data.Status)
	}
}

func TestSubmit_RejectsInvalidKind(t *testing.T) {
	e := newEcho()
	h := NewArtifactHandler(&stubService{}, nil, nil, nil)

	body := `{"content_ref": "x", "kind": "AUDIO", "owner_id": "` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/artifacts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Submit(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmit_PipelineFailureCarriesArtifactID(t *testing.T) {
	e := newEcho()
	artifact := entities.NewArtifact("transcript", entities.ArtifactKindText, uuid.New())
	artifact.Status = entities.ArtifactStatusFail
	svc := &stubService{
		submitArtifact: artifact,
		submitErr:      errors.ErrClassificationFailed(context.DeadlineExceeded),
	}
	h := NewArtifactHandler(svc, nil, nil, nil)

	body := `{"content_ref": "transcript", "kind": "TEXT", "owner_id": "` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/artifacts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Submit(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp struct {
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := resp.Details["artifact_id"]; got != artifact.ID.String() {
		t.Fatalf("expected FAIL artifact id %s in error details, got %q (body: %s)",
			artifact.ID, got, rec.Body.String())
	}
}

func TestGet_InvalidUUID(t *testing.T) {
	e := newEcho()
	h := NewArtifactHandler(&stubService{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/artifacts/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.Get(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGet_CachesTerminalArtifacts(t *testing.T) {
	e := newEcho()
	artifact := entities.NewArtifact("transcript", entities.ArtifactKindText, uuid.New())
	artifact.Status = entities.ArtifactStatusSuccess
	cache := newMemCache()
	h := NewArtifactHandler(&stubService{getArtifact: artifact}, nil, cache, nil)

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/artifacts/"+artifact.ID.String(), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(artifact.ID.String())
		if err := h.Get(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		return rec
	}

	first := serve()
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	if cache.sets != 1 {
		t.Fatalf("expected terminal artifact to be cached, sets=%d", cache.sets)
	}

	second := serve()
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on cached read, got %d", second.Code)
	}
	if cache.sets != 1 {
		t.Fatalf("cache hit must not rewrite the entry, sets=%d", cache.sets)
	}
}

func TestGet_DoesNotCachePending(t *testing.T) {
	e := newEcho()
	artifact := entities.NewArtifact("transcript", entities.ArtifactKindText, uuid.New())
	cache := newMemCache()
	h := NewArtifactHandler(&stubService{getArtifact: artifact}, nil, cache, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/artifacts/"+artifact.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(artifact.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if cache.sets != 0 {
		t.Fatal("PENDING artifacts must not be cached")
	}
}

func TestHealthCheck(t *testing.T) {
	e := newEcho()
	rt := NewRouter(nil, nil)
	rt.Setup(e)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
