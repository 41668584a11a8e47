package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/logger"
	"github.com/hvvlab/memeboard/internal/service"
)

type stubStore struct {
	memes       map[string]*domain.AnnotatedMeme
	searchCalls []searchCall
	searchOut   []domain.AnnotatedMeme
}

type searchCall struct {
	search string
	status domain.AnnotationStatus
	limit  int
	offset int
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*domain.AnnotatedMeme, error) {
	if m, ok := s.memes[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, errors.New("record not found")
}

func (s *stubStore) List(ctx context.Context) ([]domain.AnnotatedMeme, error) {
	out := make([]domain.AnnotatedMeme, 0, len(s.memes))
	for _, m := range s.memes {
		out = append(out, *m)
	}
	return out, nil
}

func (s *stubStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if _, ok := s.memes[id]; !ok {
		return errors.New("record not found")
	}
	return nil
}

func (s *stubStore) Search(ctx context.Context, search string, status domain.AnnotationStatus, limit, offset int) ([]domain.AnnotatedMeme, error) {
	s.searchCalls = append(s.searchCalls, searchCall{search: search, status: status, limit: limit, offset: offset})
	return s.searchOut, nil
}

type stubAnnotator struct{ configured bool }

func (a *stubAnnotator) IsConfigured() bool { return a.configured }

func (a *stubAnnotator) Annotate(ctx context.Context, memeID, memeURL string) (*domain.AnnotationResult, error) {
	return &domain.AnnotationResult{}, nil
}

func (a *stubAnnotator) GenerateContext(ctx context.Context, memeID, memeURL string) (string, error) {
	return "", nil
}

func newTestRouter(memes ...domain.AnnotatedMeme) (*gin.Engine, *service.EditorService) {
	r, _, editor := newTestRouterWithStore(memes...)
	return r, editor
}

func newTestRouterWithStore(memes ...domain.AnnotatedMeme) (*gin.Engine, *stubStore, *service.EditorService) {
	gin.SetMode(gin.TestMode)

	store := &stubStore{memes: map[string]*domain.AnnotatedMeme{}}
	for i := range memes {
		m := memes[i]
		store.memes[m.ID] = &m
	}

	ws := service.NewWorkspace()
	ws.Load(memes)
	editor := service.NewEditorService(store, &stubAnnotator{configured: true}, ws, logger.NewDefault())

	h := NewMemeHandler(editor, store)
	r := gin.New()
	r.GET("/api/v1/memes", h.ListMemes)
	r.GET("/api/v1/memes/:id", h.GetMeme)
	r.POST("/api/memes/update-ocr", h.UpdateOCR)
	r.POST("/api/memes/update-context", h.UpdateContext)
	r.POST("/api/v1/memes/:id/roles", h.AddRole)
	return r, store, editor
}

func doJSON(t *testing.T, r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateOCREndpoint(t *testing.T) {
	r, editor := newTestRouter(domain.AnnotatedMeme{ID: "m1", AnnotationStatus: domain.StatusUploaded})

	w := doJSON(t, r, http.MethodPost, "/api/memes/update-ocr", `{"memeId":"m1","ocrText":"such wow"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	meme, _ := editor.Workspace().Get("m1")
	if meme.OCRText != "such wow" {
		t.Errorf("OCR text not applied, got %q", meme.OCRText)
	}
}

func TestUpdateOCREndpointValidation(t *testing.T) {
	r, _ := newTestRouter(domain.AnnotatedMeme{ID: "m1"})

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing memeId", `{"ocrText":"text"}`, http.StatusBadRequest},
		{"unknown meme", `{"memeId":"ghost","ocrText":"text"}`, http.StatusNotFound},
		{"malformed json", `{"memeId":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/memes/update-ocr", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateContextEndpoint(t *testing.T) {
	r, editor := newTestRouter(domain.AnnotatedMeme{ID: "m1"})

	w := doJSON(t, r, http.MethodPost, "/api/memes/update-context", `{"memeId":"m1","context":"deep lore"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	meme, _ := editor.Workspace().Get("m1")
	if meme.Context != "deep lore" {
		t.Errorf("context not applied, got %q", meme.Context)
	}
}

func TestAddRoleEndpoint(t *testing.T) {
	r, _ := newTestRouter(domain.AnnotatedMeme{ID: "m1"})

	w := doJSON(t, r, http.MethodPost, "/api/v1/memes/m1/roles", `{"kind":"hero","value":"Thor"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var meme domain.AnnotatedMeme
	if err := json.Unmarshal(w.Body.Bytes(), &meme); err != nil {
		t.Fatalf("response is not a meme: %v", err)
	}
	if len(meme.Heroes) != 1 || meme.Heroes[0] != "Thor" {
		t.Errorf("expected heroes [Thor], got %v", meme.Heroes)
	}

	// Blank role names are rejected before any write.
	w = doJSON(t, r, http.MethodPost, "/api/v1/memes/m1/roles", `{"kind":"hero","value":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a blank role, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/memes/m1/roles", `{"kind":"sidekick","value":"Robin"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown kind, got %d", w.Code)
	}
}

func TestListMemesEndpoint(t *testing.T) {
	r, _ := newTestRouter(
		domain.AnnotatedMeme{ID: "m1", FileName: "grumpy.png", AnnotationStatus: domain.StatusUploaded},
		domain.AnnotatedMeme{ID: "m2", FileName: "doge.jpg", AnnotationStatus: domain.StatusHalfAnnotated},
	)

	w := doJSON(t, r, http.MethodGet, "/api/v1/memes?status=half_annotated", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Memes []domain.AnnotatedMeme `json:"memes"`
		Total int                    `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Total != 1 || len(resp.Memes) != 1 || resp.Memes[0].ID != "m2" {
		t.Errorf("expected only m2, got %+v", resp)
	}
}

func TestListMemesPagination(t *testing.T) {
	r, store, _ := newTestRouterWithStore(
		domain.AnnotatedMeme{ID: "m1", FileName: "grumpy.png", AnnotationStatus: domain.StatusUploaded},
	)
	store.searchOut = []domain.AnnotatedMeme{{ID: "m2", FileName: "page two.png"}}

	w := doJSON(t, r, http.MethodGet, "/api/v1/memes?search=grumpy&status=uploaded&limit=10&offset=20", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if len(store.searchCalls) != 1 {
		t.Fatalf("pagination must hit the store, got %d calls", len(store.searchCalls))
	}
	call := store.searchCalls[0]
	if call.search != "grumpy" || call.status != domain.StatusUploaded || call.limit != 10 || call.offset != 20 {
		t.Errorf("unexpected store query %+v", call)
	}

	var resp struct {
		Memes  []domain.AnnotatedMeme `json:"memes"`
		Limit  int                    `json:"limit"`
		Offset int                    `json:"offset"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Memes) != 1 || resp.Memes[0].ID != "m2" {
		t.Errorf("expected the store page, got %+v", resp.Memes)
	}
	if resp.Limit != 10 || resp.Offset != 20 {
		t.Errorf("expected pagination echoed, got limit=%d offset=%d", resp.Limit, resp.Offset)
	}

	// "all" widens the status filter to every state.
	doJSON(t, r, http.MethodGet, "/api/v1/memes?status=all&limit=5", "")
	if got := store.searchCalls[1].status; got != "" {
		t.Errorf("status all should map to no filter, got %q", got)
	}

	// Without pagination the in-memory collection answers; the store stays idle.
	doJSON(t, r, http.MethodGet, "/api/v1/memes?search=grumpy", "")
	if len(store.searchCalls) != 2 {
		t.Errorf("unpaginated listing must not hit the store, got %d calls", len(store.searchCalls))
	}
}

func TestGetMemeNotFound(t *testing.T) {
	r, _ := newTestRouter(domain.AnnotatedMeme{ID: "m1"})

	w := doJSON(t, r, http.MethodGet, "/api/v1/memes/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
