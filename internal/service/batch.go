package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hvvlab/memeboard/internal/annotation"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/logger"
)

var (
	// ErrBatchBusy is returned when a batch operation is already running.
	// The two bulk operations never run concurrently with each other.
	ErrBatchBusy = errors.New("a batch annotation operation is already running")

	// ErrEmptyScope means no meme matched the batch filter. The operation
	// exits without any network call.
	ErrEmptyScope = errors.New("no memes match the batch scope")
)

// Progress is the (current, total) pair for the running batch. Current counts
// items attempted so far, including the one in flight, and the pair resets to
// (0, 0) when the batch finishes.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// BatchResult is the final tally of one batch run.
// SuccessCount + FailureCount always equals the scope size.
type BatchResult struct {
	RunID        string `json:"run_id"`
	Operation    string `json:"operation"`
	Total        int    `json:"total"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}

// BatchService drives the annotation service across a status-filtered scope,
// strictly one meme at a time. Sequential calls are a deliberate backpressure
// choice: one outstanding request keeps the annotation backend safe and the
// progress pair deterministic. Single-meme edits are not blocked while a
// batch runs; that interleaving is a documented race, not a guarded one.
type BatchService struct {
	store     MemeStore
	annotator Annotator
	runs      RunStore
	workspace *Workspace
	logger    *logger.Logger

	mu       sync.Mutex
	active   bool
	progress Progress
}

// NewBatchService creates a new batch orchestrator.
// Parameters:
//   - store: persistent meme store.
//   - annotator: external annotation service client.
//   - runs: run audit store.
//   - workspace: shared in-memory collection.
//   - log: structured logger.
// Returns:
//   - *BatchService: initialized service.
func NewBatchService(store MemeStore, annotator Annotator, runs RunStore, workspace *Workspace, log *logger.Logger) *BatchService {
	return &BatchService{
		store:     store,
		annotator: annotator,
		runs:      runs,
		workspace: workspace,
		logger:    log,
	}
}

// Progress returns the current batch progress. (0, 0) means idle.
func (s *BatchService) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Active reports whether a batch operation is running.
func (s *BatchService) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// AnnotateAll annotates every meme whose status is exactly uploaded. Items
// are processed in collection order, one completion before the next request.
// A meme without an image URL counts as a failure without a network call;
// any single item's failure never aborts the batch.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *BatchResult: final tally; nil on ErrBatchBusy/ErrEmptyScope/config error.
//   - error: ErrBatchBusy, ErrEmptyScope, or annotation.ErrNotConfigured.
func (s *BatchService) AnnotateAll(ctx context.Context) (*BatchResult, error) {
	return s.run(ctx, domain.OperationAnnotateAll, domain.StatusUploaded, s.annotateOne)
}

// GenerateContextForAll generates context for every meme whose status is
// exactly half_annotated. Each success sets the context and forces the status
// to fully_annotated. Same ordering, isolation, and tally rules as
// AnnotateAll.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *BatchResult: final tally; nil on ErrBatchBusy/ErrEmptyScope/config error.
//   - error: ErrBatchBusy, ErrEmptyScope, or annotation.ErrNotConfigured.
func (s *BatchService) GenerateContextForAll(ctx context.Context) (*BatchResult, error) {
	return s.run(ctx, domain.OperationGenerateContextAll, domain.StatusHalfAnnotated, s.contextOne)
}

// run executes one batch operation over the scope snapshot.
func (s *BatchService) run(
	ctx context.Context,
	op domain.BatchOperation,
	scopeStatus domain.AnnotationStatus,
	process func(ctx context.Context, meme domain.AnnotatedMeme) error,
) (*BatchResult, error) {
	if !s.annotator.IsConfigured() {
		return nil, annotation.ErrNotConfigured
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil, ErrBatchBusy
	}
	s.active = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = false
		s.progress = Progress{}
		s.mu.Unlock()
	}()

	scope := s.workspace.ByStatus(scopeStatus)
	if len(scope) == 0 {
		return nil, ErrEmptyScope
	}

	runID := uuid.New().String()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldRunID:     runID,
		logger.FieldOperation: string(op),
	})

	now := time.Now()
	run := &domain.AnnotationRun{
		ID:         runID,
		Operation:  op,
		Status:     domain.RunStatusRunning,
		TotalItems: len(scope),
		StartedAt:  &now,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		// The audit trail is best effort; the batch itself proceeds.
		s.logger.WithError(err).Warn("Failed to record batch run")
	}

	logger.CtxInfo(ctx, "Starting batch %s over %d memes", op, len(scope))

	success := 0
	failure := 0
	for i, meme := range scope {
		s.setProgress(i+1, len(scope))

		if meme.UploadedMemeURL == "" {
			logger.CtxWarn(ctx, "Skipping meme %s: missing URL", meme.ID)
			failure++
			continue
		}

		if err := process(ctx, meme); err != nil {
			s.logger.WithError(err).WithFields(logger.Fields{
				logger.FieldRunID:  runID,
				logger.FieldMemeID: meme.ID,
			}).Error("Batch item failed")
			failure++
			continue
		}
		success++
	}

	done := time.Now()
	run.Status = domain.RunStatusCompleted
	run.SuccessCount = success
	run.FailureCount = failure
	run.CompletedAt = &done
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.WithError(err).Warn("Failed to finalize batch run record")
	}

	logger.With(logger.Fields{
		logger.FieldCount:      len(scope),
		logger.FieldDurationMs: done.Sub(now).Milliseconds(),
	}).Info(ctx, "Batch %s completed: %d successful, %d failed", op, success, failure)

	return &BatchResult{
		RunID:        runID,
		Operation:    string(op),
		Total:        len(scope),
		SuccessCount: success,
		FailureCount: failure,
	}, nil
}

// annotateOne performs one annotate call and persists the merged result.
func (s *BatchService) annotateOne(ctx context.Context, meme domain.AnnotatedMeme) error {
	res, err := s.annotator.Annotate(ctx, meme.ID, meme.UploadedMemeURL)
	if err != nil {
		return err
	}

	meme.ApplyAnnotation(res)
	if err := s.store.UpdateFields(ctx, meme.ID, annotationFields(&meme)); err != nil {
		return err
	}
	s.workspace.Replace(meme)
	return nil
}

// contextOne performs one generate-context call and persists the result.
func (s *BatchService) contextOne(ctx context.Context, meme domain.AnnotatedMeme) error {
	text, err := s.annotator.GenerateContext(ctx, meme.ID, meme.UploadedMemeURL)
	if err != nil {
		return err
	}

	meme.ApplyContext(text)
	if err := s.store.UpdateFields(ctx, meme.ID, contextFields(&meme)); err != nil {
		return err
	}
	s.workspace.Replace(meme)
	return nil
}

func (s *BatchService) setProgress(current, total int) {
	s.mu.Lock()
	s.progress = Progress{Current: current, Total: total}
	s.mu.Unlock()
}
