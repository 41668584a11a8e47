package repository

import (
	"context"

	"github.com/hvvlab/memeboard/internal/domain"
	"gorm.io/gorm"
)

// RunRepository handles batch annotation run records.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *RunRepository: repository instance bound to db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run record.
func (r *RunRepository) Create(ctx context.Context, run *domain.AnnotationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update saves the current state of a run record.
func (r *RunRepository) Update(ctx context.Context, run *domain.AnnotationRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// ListRecent retrieves the most recent runs, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
// Returns:
//   - []domain.AnnotationRun: matching run records.
//   - error: non-nil if the query fails.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnnotationRun, error) {
	var runs []domain.AnnotationRun
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
