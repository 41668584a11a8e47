package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hvvlab/memeboard/internal/annotation"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/logger"
)

// fakeStore is an in-memory MemeStore recording every field write.
type fakeStore struct {
	memes       map[string]*domain.AnnotatedMeme
	updates     []map[string]interface{}
	updateIDs   []string
	failUpdates bool
}

func newFakeStore(memes ...domain.AnnotatedMeme) *fakeStore {
	s := &fakeStore{memes: map[string]*domain.AnnotatedMeme{}}
	for i := range memes {
		m := memes[i]
		s.memes[m.ID] = &m
	}
	return s
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*domain.AnnotatedMeme, error) {
	if m, ok := s.memes[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, errors.New("record not found")
}

func (s *fakeStore) List(ctx context.Context) ([]domain.AnnotatedMeme, error) {
	out := make([]domain.AnnotatedMeme, 0, len(s.memes))
	for _, m := range s.memes {
		out = append(out, *m)
	}
	return out, nil
}

func (s *fakeStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if s.failUpdates {
		return errors.New("store write failed")
	}
	if _, ok := s.memes[id]; !ok {
		return errors.New("record not found")
	}
	s.updates = append(s.updates, fields)
	s.updateIDs = append(s.updateIDs, id)
	return nil
}

// fakeAnnotator is a canned Annotator counting its calls.
type fakeAnnotator struct {
	configured bool

	annotateCalls []string
	contextCalls  []string

	result      *domain.AnnotationResult
	contextText string
	failIDs     map[string]bool
}

func (a *fakeAnnotator) IsConfigured() bool {
	return a.configured
}

func (a *fakeAnnotator) Annotate(ctx context.Context, memeID, memeURL string) (*domain.AnnotationResult, error) {
	a.annotateCalls = append(a.annotateCalls, memeID)
	if a.failIDs[memeID] {
		return nil, errors.New("annotation service error")
	}
	if a.result != nil {
		res := *a.result
		return &res, nil
	}
	return &domain.AnnotationResult{}, nil
}

func (a *fakeAnnotator) GenerateContext(ctx context.Context, memeID, memeURL string) (string, error) {
	a.contextCalls = append(a.contextCalls, memeID)
	if a.failIDs[memeID] {
		return "", errors.New("annotation service error")
	}
	return a.contextText, nil
}

// fakeRunStore records run audit writes.
type fakeRunStore struct {
	created []*domain.AnnotationRun
	updated []*domain.AnnotationRun
}

func (s *fakeRunStore) Create(ctx context.Context, run *domain.AnnotationRun) error {
	copied := *run
	s.created = append(s.created, &copied)
	return nil
}

func (s *fakeRunStore) Update(ctx context.Context, run *domain.AnnotationRun) error {
	copied := *run
	s.updated = append(s.updated, &copied)
	return nil
}

func newEditor(store *fakeStore, annotator *fakeAnnotator) *EditorService {
	ws := NewWorkspace()
	memes, _ := store.List(context.Background())
	ws.Load(memes)
	return NewEditorService(store, annotator, ws, logger.NewDefault())
}

func TestUpdateOCRText(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{ID: "m1", AnnotationStatus: domain.StatusUploaded})
	editor := newEditor(store, &fakeAnnotator{configured: true})

	if err := editor.UpdateOCRText(context.Background(), "m1", "hello world"); err != nil {
		t.Fatalf("UpdateOCRText failed: %v", err)
	}

	if len(store.updates) != 1 {
		t.Fatalf("expected 1 store write, got %d", len(store.updates))
	}
	if got := store.updates[0]["ocr_text"]; got != "hello world" {
		t.Errorf("expected ocr_text write, got %v", store.updates[0])
	}

	meme, _ := editor.Workspace().Get("m1")
	if meme.OCRText != "hello world" {
		t.Errorf("workspace copy not updated, got %q", meme.OCRText)
	}
	if meme.AnnotationStatus != domain.StatusUploaded {
		t.Errorf("manual edit must not change status, got %q", meme.AnnotationStatus)
	}
}

func TestUpdateOCRTextRepeatedWriteIsIdempotent(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{ID: "m1"})
	editor := newEditor(store, &fakeAnnotator{})
	ctx := context.Background()

	if err := editor.UpdateOCRText(ctx, "m1", "same text"); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if err := editor.UpdateOCRText(ctx, "m1", "same text"); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	// Two identical writes, nothing else: no extra side effects accumulate.
	if len(store.updates) != 2 {
		t.Fatalf("expected exactly 2 store writes, got %d", len(store.updates))
	}
	for i, fields := range store.updates {
		if len(fields) != 1 || fields["ocr_text"] != "same text" {
			t.Errorf("write %d should carry only ocr_text, got %v", i, fields)
		}
	}

	meme, _ := editor.Workspace().Get("m1")
	if meme.OCRText != "same text" {
		t.Errorf("expected stable stored value, got %q", meme.OCRText)
	}
}

func TestUpdateOCRTextUnknownMeme(t *testing.T) {
	editor := newEditor(newFakeStore(), &fakeAnnotator{})

	err := editor.UpdateOCRText(context.Background(), "ghost", "text")
	if !errors.Is(err, ErrMemeNotFound) {
		t.Errorf("expected ErrMemeNotFound, got %v", err)
	}
}

func TestUpdateOCRTextStoreFailureLeavesWorkspace(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{ID: "m1", OCRText: "original"})
	store.failUpdates = true
	editor := newEditor(store, &fakeAnnotator{})

	if err := editor.UpdateOCRText(context.Background(), "m1", "changed"); err == nil {
		t.Fatal("expected store failure to surface")
	}

	meme, _ := editor.Workspace().Get("m1")
	if meme.OCRText != "original" {
		t.Errorf("workspace must not change on failed write, got %q", meme.OCRText)
	}
}

func TestAddRemoveRoleRoundTrip(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{
		ID:     "m1",
		Heroes: domain.StringArray{"Thor"},
	})
	editor := newEditor(store, &fakeAnnotator{})
	ctx := context.Background()

	if err := editor.AddRole(ctx, "m1", domain.RoleHero, "Loki"); err != nil {
		t.Fatalf("AddRole failed: %v", err)
	}

	meme, _ := editor.Workspace().Get("m1")
	if !reflect.DeepEqual(meme.Heroes, domain.StringArray{"Thor", "Loki"}) {
		t.Fatalf("expected [Thor Loki], got %v", meme.Heroes)
	}

	if err := editor.RemoveRole(ctx, "m1", domain.RoleHero, "Loki"); err != nil {
		t.Fatalf("RemoveRole failed: %v", err)
	}

	meme, _ = editor.Workspace().Get("m1")
	if !reflect.DeepEqual(meme.Heroes, domain.StringArray{"Thor"}) {
		t.Errorf("expected [Thor] after remove, got %v", meme.Heroes)
	}

	// Both writes carry the full replacement list, not a delta.
	if len(store.updates) != 2 {
		t.Fatalf("expected 2 store writes, got %d", len(store.updates))
	}
	first, ok := store.updates[0]["heroes"].(domain.StringArray)
	if !ok || !reflect.DeepEqual(first, domain.StringArray{"Thor", "Loki"}) {
		t.Errorf("first write should hold the whole list, got %v", store.updates[0])
	}
}

func TestAddRoleValidation(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{ID: "m1"})
	editor := newEditor(store, &fakeAnnotator{})
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    domain.RoleKind
		value   string
		wantErr error
	}{
		{"blank value", domain.RoleHero, "", ErrEmptyRoleName},
		{"whitespace value", domain.RoleHero, "   ", ErrEmptyRoleName},
		{"unknown kind", domain.RoleKind("sidekick"), "Robin", ErrUnknownRoleKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := editor.AddRole(ctx, "m1", tt.kind, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if len(store.updates) != 0 {
		t.Errorf("validation failures must not reach the store, got %d writes", len(store.updates))
	}
}

func TestRemoveRoleFromEmptyListIsNoOp(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{ID: "m1"})
	editor := newEditor(store, &fakeAnnotator{})

	if err := editor.RemoveRole(context.Background(), "m1", domain.RoleVillain, "Thanos"); err != nil {
		t.Fatalf("remove from empty list should succeed, got %v", err)
	}
	if len(store.updates) != 0 {
		t.Errorf("remove from empty list must not write, got %d writes", len(store.updates))
	}
}

func TestRemoveRoleExactMatchOnly(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{
		ID:       "m1",
		Villains: domain.StringArray{"Thanos", "thanos", "Thanos"},
	})
	editor := newEditor(store, &fakeAnnotator{})

	if err := editor.RemoveRole(context.Background(), "m1", domain.RoleVillain, "Thanos"); err != nil {
		t.Fatalf("RemoveRole failed: %v", err)
	}

	meme, _ := editor.Workspace().Get("m1")
	if !reflect.DeepEqual(meme.Villains, domain.StringArray{"thanos"}) {
		t.Errorf("remove is exact and removes every match, got %v", meme.Villains)
	}
}

func TestAnnotateMergesDefaults(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{
		ID:               "m1",
		UploadedMemeURL:  "https://cdn.example.com/m1.png",
		AnnotationStatus: domain.StatusUploaded,
	})
	annotator := &fakeAnnotator{
		configured: true,
		result: &domain.AnnotationResult{
			Heroes:    domain.StringArray{"Doge"},
			Sentiment: "ironic",
		},
	}
	editor := newEditor(store, annotator)

	meme, err := editor.Annotate(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	if meme.AnnotationStatus != domain.StatusHalfAnnotated {
		t.Errorf("absent status should default to half_annotated, got %q", meme.AnnotationStatus)
	}
	if !reflect.DeepEqual(meme.Heroes, domain.StringArray{"Doge"}) {
		t.Errorf("expected heroes [Doge], got %v", meme.Heroes)
	}
	if meme.Villains == nil || len(meme.Villains) != 0 {
		t.Errorf("absent lists should become empty lists, got %v", meme.Villains)
	}
	if len(store.updates) != 1 {
		t.Fatalf("expected 1 store write, got %d", len(store.updates))
	}
	if _, ok := store.updates[0]["annotation_status"]; !ok {
		t.Errorf("annotation write must include the status, got %v", store.updates[0])
	}
}

func TestAnnotateNotConfigured(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{ID: "m1", UploadedMemeURL: "https://x/y.png"})
	annotator := &fakeAnnotator{configured: false}
	editor := newEditor(store, annotator)

	_, err := editor.Annotate(context.Background(), "m1")
	if !errors.Is(err, annotation.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if len(annotator.annotateCalls) != 0 {
		t.Errorf("unconfigured client must not be called, got %d calls", len(annotator.annotateCalls))
	}
}

func TestAnnotateMissingURL(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{ID: "m1"})
	annotator := &fakeAnnotator{configured: true}
	editor := newEditor(store, annotator)

	_, err := editor.Annotate(context.Background(), "m1")
	if !errors.Is(err, ErrMissingURL) {
		t.Errorf("expected ErrMissingURL, got %v", err)
	}
	if len(annotator.annotateCalls) != 0 {
		t.Errorf("missing URL must not trigger a network call, got %d calls", len(annotator.annotateCalls))
	}
}

func TestGenerateContextForcesFullyAnnotated(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{
		ID:               "m1",
		UploadedMemeURL:  "https://cdn.example.com/m1.png",
		AnnotationStatus: domain.StatusUploaded,
	})
	annotator := &fakeAnnotator{configured: true, contextText: "a classic reaction image"}
	editor := newEditor(store, annotator)

	meme, err := editor.GenerateContext(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GenerateContext failed: %v", err)
	}

	if meme.Context != "a classic reaction image" {
		t.Errorf("expected context set, got %q", meme.Context)
	}
	if meme.AnnotationStatus != domain.StatusFullyAnnotated {
		t.Errorf("context generation forces fully_annotated even from uploaded, got %q", meme.AnnotationStatus)
	}
}

func TestAnnotateFailureLeavesMemeUnchanged(t *testing.T) {
	store := newFakeStore(domain.AnnotatedMeme{
		ID:               "m1",
		UploadedMemeURL:  "https://cdn.example.com/m1.png",
		AnnotationStatus: domain.StatusUploaded,
		OCRText:          "original",
	})
	annotator := &fakeAnnotator{configured: true, failIDs: map[string]bool{"m1": true}}
	editor := newEditor(store, annotator)

	if _, err := editor.Annotate(context.Background(), "m1"); err == nil {
		t.Fatal("expected annotation failure to surface")
	}

	meme, _ := editor.Workspace().Get("m1")
	if meme.AnnotationStatus != domain.StatusUploaded || meme.OCRText != "original" {
		t.Errorf("failed annotation must leave the meme unchanged, got %+v", meme)
	}
	if len(store.updates) != 0 {
		t.Errorf("failed annotation must not write, got %d writes", len(store.updates))
	}
}
