package service

import (
	"context"
	"errors"
	"strings"

	"github.com/hvvlab/memeboard/internal/annotation"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/logger"
)

// Sentinel errors for single-meme operations. Handlers map them onto the
// user-facing error taxonomy.
var (
	// ErrEmptyRoleName rejects a blank role input before any store call.
	ErrEmptyRoleName = errors.New("role name cannot be empty")

	// ErrUnknownRoleKind rejects a role kind outside hero/villain/victim/other.
	ErrUnknownRoleKind = errors.New("unknown role kind")

	// ErrMissingURL marks a meme without a resolvable image URL. In batch mode
	// it is counted as a failure, never fatal.
	ErrMissingURL = errors.New("meme is missing its image URL")

	// ErrMemeNotFound marks an unknown meme identifier.
	ErrMemeNotFound = errors.New("meme not found")
)

// EditorService mutates one meme at a time: manual field edits go straight to
// the store, inferred edits go through the annotation service. Every
// successful mutation is mirrored into the workspace by replace-by-identifier.
type EditorService struct {
	store     MemeStore
	annotator Annotator
	workspace *Workspace
	logger    *logger.Logger
}

// NewEditorService creates a new editor service.
// Parameters:
//   - store: persistent meme store.
//   - annotator: external annotation service client.
//   - workspace: shared in-memory collection.
//   - log: structured logger.
// Returns:
//   - *EditorService: initialized service.
func NewEditorService(store MemeStore, annotator Annotator, workspace *Workspace, log *logger.Logger) *EditorService {
	return &EditorService{
		store:     store,
		annotator: annotator,
		workspace: workspace,
		logger:    log,
	}
}

// Workspace exposes the shared collection for read paths (list, selection).
func (s *EditorService) Workspace() *Workspace {
	return s.workspace
}

// Refresh reloads the workspace from the store. This is the full re-sync that
// reconciles the optimistic in-memory view with persistent truth.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the store read fails.
func (s *EditorService) Refresh(ctx context.Context) error {
	memes, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	s.workspace.Load(memes)
	return nil
}

// UpdateOCRText persists a new OCR text for one meme. No retry on failure;
// the workspace is only touched after the write succeeds.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme identifier.
//   - text: replacement OCR text.
// Returns:
//   - error: non-nil if the meme is unknown or the write fails.
func (s *EditorService) UpdateOCRText(ctx context.Context, id, text string) error {
	return s.updateField(ctx, id, "ocr_text", text, func(m *domain.AnnotatedMeme) {
		m.OCRText = text
	})
}

// UpdateExplanation persists a new explanation for one meme.
func (s *EditorService) UpdateExplanation(ctx context.Context, id, text string) error {
	return s.updateField(ctx, id, "explanation", text, func(m *domain.AnnotatedMeme) {
		m.Explanation = text
	})
}

// UpdateContext persists a new context narrative for one meme. The UI
// contract allows this once a meme is fully annotated; the service itself
// does not gate on status.
func (s *EditorService) UpdateContext(ctx context.Context, id, text string) error {
	return s.updateField(ctx, id, "context", text, func(m *domain.AnnotatedMeme) {
		m.Context = text
	})
}

func (s *EditorService) updateField(ctx context.Context, id, column, value string, apply func(*domain.AnnotatedMeme)) error {
	meme, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.UpdateFields(ctx, id, map[string]interface{}{column: value}); err != nil {
		s.logger.WithError(err).WithField(logger.FieldMemeID, id).Errorf("Failed to update %s", column)
		return err
	}

	apply(meme)
	s.workspace.Replace(*meme)
	return nil
}

// AddRole appends a role assignee to one of the four role lists and persists
// the full replacement list. There is no duplicate check, and the whole array
// is overwritten: concurrent edits race and the last write wins.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme identifier.
//   - kind: hero, villain, victim, or other.
//   - value: role assignee name; rejected if blank after trimming.
// Returns:
//   - error: validation error, unknown meme, or store failure.
func (s *EditorService) AddRole(ctx context.Context, id string, kind domain.RoleKind, value string) error {
	if !kind.IsValid() {
		return ErrUnknownRoleKind
	}
	if strings.TrimSpace(value) == "" {
		return ErrEmptyRoleName
	}

	meme, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	updated := append(append(domain.StringArray{}, meme.Roles(kind)...), value)
	if err := s.store.UpdateFields(ctx, id, map[string]interface{}{kind.Column(): updated}); err != nil {
		s.logger.WithError(err).WithField(logger.FieldMemeID, id).Errorf("Failed to add %s", kind)
		return err
	}

	meme.SetRoles(kind, updated)
	s.workspace.Replace(*meme)
	return nil
}

// RemoveRole removes every exact match of value from the role list and
// persists the full replacement list. An empty list makes the call a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme identifier.
//   - kind: hero, villain, victim, or other.
//   - value: role assignee to remove by exact match.
// Returns:
//   - error: unknown kind, unknown meme, or store failure.
func (s *EditorService) RemoveRole(ctx context.Context, id string, kind domain.RoleKind, value string) error {
	if !kind.IsValid() {
		return ErrUnknownRoleKind
	}

	meme, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	current := meme.Roles(kind)
	if len(current) == 0 {
		return nil
	}

	updated := domain.StringArray{}
	for _, r := range current {
		if r != value {
			updated = append(updated, r)
		}
	}

	if err := s.store.UpdateFields(ctx, id, map[string]interface{}{kind.Column(): updated}); err != nil {
		s.logger.WithError(err).WithField(logger.FieldMemeID, id).Errorf("Failed to remove %s", kind)
		return err
	}

	meme.SetRoles(kind, updated)
	s.workspace.Replace(*meme)
	return nil
}

// Annotate runs the annotation service for one meme and merges the response
// with explicit defaults: absent lists become empty lists, absent strings
// empty strings, absent status half_annotated. On failure the meme is left
// unchanged.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme identifier.
// Returns:
//   - *domain.AnnotatedMeme: updated meme on success.
//   - error: configuration, precondition, transport, or store error.
func (s *EditorService) Annotate(ctx context.Context, id string) (*domain.AnnotatedMeme, error) {
	if !s.annotator.IsConfigured() {
		return nil, annotation.ErrNotConfigured
	}

	meme, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if meme.UploadedMemeURL == "" {
		return nil, ErrMissingURL
	}

	res, err := s.annotator.Annotate(ctx, meme.ID, meme.UploadedMemeURL)
	if err != nil {
		s.logger.WithError(err).WithField(logger.FieldMemeID, id).Error("Failed to generate annotation")
		return nil, err
	}

	meme.ApplyAnnotation(res)
	if err := s.store.UpdateFields(ctx, id, annotationFields(meme)); err != nil {
		return nil, err
	}

	s.workspace.Replace(*meme)
	logger.CtxInfo(ctx, "Annotation generated for meme %s", id)
	return meme, nil
}

// GenerateContext runs the context endpoint for one meme. On success the
// context is set and the status is forced to fully_annotated regardless of
// the prior status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme identifier.
// Returns:
//   - *domain.AnnotatedMeme: updated meme on success.
//   - error: configuration, precondition, transport, or store error.
func (s *EditorService) GenerateContext(ctx context.Context, id string) (*domain.AnnotatedMeme, error) {
	if !s.annotator.IsConfigured() {
		return nil, annotation.ErrNotConfigured
	}

	meme, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if meme.UploadedMemeURL == "" {
		return nil, ErrMissingURL
	}

	text, err := s.annotator.GenerateContext(ctx, meme.ID, meme.UploadedMemeURL)
	if err != nil {
		s.logger.WithError(err).WithField(logger.FieldMemeID, id).Error("Failed to generate context")
		return nil, err
	}

	meme.ApplyContext(text)
	if err := s.store.UpdateFields(ctx, id, contextFields(meme)); err != nil {
		return nil, err
	}

	s.workspace.Replace(*meme)
	logger.CtxInfo(ctx, "Context generated for meme %s", id)
	return meme, nil
}

// lookup resolves a meme from the workspace first, falling back to the store.
func (s *EditorService) lookup(ctx context.Context, id string) (*domain.AnnotatedMeme, error) {
	if m, ok := s.workspace.Get(id); ok {
		return &m, nil
	}
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, ErrMemeNotFound
	}
	return m, nil
}

// annotationFields maps the inferred fields onto store columns for one
// full-field overwrite write.
func annotationFields(m *domain.AnnotatedMeme) map[string]interface{} {
	return map[string]interface{}{
		"annotation_status": m.AnnotationStatus,
		"heroes":            m.Heroes,
		"villains":          m.Villains,
		"victims":           m.Victims,
		"other_roles":       m.OtherRoles,
		"sentiment":         m.Sentiment,
		"explanation":       m.Explanation,
		"genre":             m.Genre,
	}
}

// contextFields maps the context result onto store columns.
func contextFields(m *domain.AnnotatedMeme) map[string]interface{} {
	return map[string]interface{}{
		"context":           m.Context,
		"annotation_status": m.AnnotationStatus,
	}
}
