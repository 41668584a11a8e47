package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/logger"
	"github.com/hvvlab/memeboard/internal/service"
)

type stubRunStore struct{}

func (stubRunStore) Create(ctx context.Context, run *domain.AnnotationRun) error { return nil }
func (stubRunStore) Update(ctx context.Context, run *domain.AnnotationRun) error { return nil }

func newBatchRouter(memes ...domain.AnnotatedMeme) *gin.Engine {
	gin.SetMode(gin.TestMode)

	store := &stubStore{memes: map[string]*domain.AnnotatedMeme{}}
	for i := range memes {
		m := memes[i]
		store.memes[m.ID] = &m
	}

	ws := service.NewWorkspace()
	ws.Load(memes)
	batch := service.NewBatchService(store, &stubAnnotator{configured: true}, stubRunStore{}, ws, logger.NewDefault())

	h := NewBatchHandler(batch, nil)
	r := gin.New()
	r.POST("/api/v1/annotation/annotate-all", h.AnnotateAll)
	r.POST("/api/v1/annotation/generate-context-all", h.GenerateContextForAll)
	r.GET("/api/v1/annotation/progress", h.Progress)
	return r
}

func TestAnnotateAllEndpointTally(t *testing.T) {
	r := newBatchRouter(
		domain.AnnotatedMeme{ID: "m1", UploadedMemeURL: "https://cdn/m1.png", AnnotationStatus: domain.StatusUploaded},
		domain.AnnotatedMeme{ID: "m2", AnnotationStatus: domain.StatusUploaded},
	)

	w := doJSON(t, r, http.MethodPost, "/api/v1/annotation/annotate-all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string              `json:"message"`
		Result  service.BatchResult `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Result.SuccessCount != 1 || resp.Result.FailureCount != 1 {
		t.Errorf("expected 1/1 tally, got %+v", resp.Result)
	}
	if resp.Message != "Batch annotation completed: 1 successful, 1 failed" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestAnnotateAllEndpointEmptyScope(t *testing.T) {
	r := newBatchRouter(
		domain.AnnotatedMeme{ID: "m1", AnnotationStatus: domain.StatusFullyAnnotated},
	)

	w := doJSON(t, r, http.MethodPost, "/api/v1/annotation/annotate-all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("an empty scope is informational, expected 200, got %d", w.Code)
	}

	var resp struct {
		Message string              `json:"message"`
		Result  service.BatchResult `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Message != "No memes with 'uploaded' status found to annotate" {
		t.Errorf("unexpected notice %q", resp.Message)
	}
	if resp.Result.Total != 0 {
		t.Errorf("expected an empty tally, got %+v", resp.Result)
	}
}

func TestGenerateContextAllEndpointEmptyScope(t *testing.T) {
	r := newBatchRouter(
		domain.AnnotatedMeme{ID: "m1", AnnotationStatus: domain.StatusUploaded},
	)

	w := doJSON(t, r, http.MethodPost, "/api/v1/annotation/generate-context-all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Message != "No memes with 'half_annotated' status found to generate context for" {
		t.Errorf("unexpected notice %q", resp.Message)
	}
}

func TestProgressEndpointIdle(t *testing.T) {
	r := newBatchRouter()

	w := doJSON(t, r, http.MethodGet, "/api/v1/annotation/progress", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Active   bool             `json:"active"`
		Progress service.Progress `json:"progress"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Active || resp.Progress.Current != 0 || resp.Progress.Total != 0 {
		t.Errorf("expected idle progress, got %+v", resp)
	}
}
