package repository

import (
	"context"
	"fmt"

	"github.com/hvvlab/memeboard/internal/domain"
	"gorm.io/gorm"
)

// MemeRepository handles annotated meme data operations.
type MemeRepository struct {
	db *gorm.DB
}

// NewMemeRepository creates a new MemeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MemeRepository: repository instance bound to db.
func NewMemeRepository(db *gorm.DB) *MemeRepository {
	return &MemeRepository{db: db}
}

// Create inserts a new meme record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meme: meme record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *MemeRepository) Create(ctx context.Context, meme *domain.AnnotatedMeme) error {
	return r.db.WithContext(ctx).Create(meme).Error
}

// GetByID retrieves a meme by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
// Returns:
//   - *domain.AnnotatedMeme: meme record if found.
//   - error: non-nil if lookup fails.
func (r *MemeRepository) GetByID(ctx context.Context, id string) (*domain.AnnotatedMeme, error) {
	var meme domain.AnnotatedMeme
	if err := r.db.WithContext(ctx).First(&meme, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meme, nil
}

// List retrieves all memes in stable creation order. Batch scopes are built
// from this ordering, so it must stay deterministic.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.AnnotatedMeme: all meme records, oldest first.
//   - error: non-nil if the query fails.
func (r *MemeRepository) List(ctx context.Context) ([]domain.AnnotatedMeme, error) {
	var memes []domain.AnnotatedMeme
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

// ListByStatus retrieves memes by annotation status with pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: annotation status to filter by.
//   - limit: maximum number of records to return; <= 0 means no limit.
//   - offset: number of records to skip.
// Returns:
//   - []domain.AnnotatedMeme: matching meme records.
//   - error: non-nil if the query fails.
func (r *MemeRepository) ListByStatus(ctx context.Context, status domain.AnnotationStatus, limit, offset int) ([]domain.AnnotatedMeme, error) {
	var memes []domain.AnnotatedMeme
	query := r.db.WithContext(ctx).
		Where("annotation_status = ?", status).
		Order("created_at ASC, id ASC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

// Search retrieves memes whose file name contains the query, optionally
// restricted to one annotation status. Matching on the status is exact.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - search: case-insensitive substring of the file name; empty means all.
//   - status: exact status filter; empty means all statuses.
//   - limit: maximum number of records to return; <= 0 means no limit.
//   - offset: number of records to skip.
// Returns:
//   - []domain.AnnotatedMeme: matching meme records.
//   - error: non-nil if the query fails.
func (r *MemeRepository) Search(ctx context.Context, search string, status domain.AnnotationStatus, limit, offset int) ([]domain.AnnotatedMeme, error) {
	var memes []domain.AnnotatedMeme
	query := r.db.WithContext(ctx).Model(&domain.AnnotatedMeme{})
	if search != "" {
		query = query.Where("LOWER(file_name) LIKE ? ESCAPE '\\'", "%"+toLowerPattern(search)+"%")
	}
	if status != "" {
		query = query.Where("annotation_status = ?", status)
	}
	query = query.Order("created_at ASC, id ASC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

// UpdateFields overwrites the given columns of one meme. This is a full-field
// overwrite, not a compare-and-swap: concurrent writers race and the last
// write wins, which matches the durable store semantics the workflow assumes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID to update.
//   - fields: column name to value map; values replace stored values entirely.
// Returns:
//   - error: non-nil if no row matched or the update fails.
func (r *MemeRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&domain.AnnotatedMeme{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("meme %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// ExistsByMD5Hash checks if a meme with the given MD5 hash exists.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - md5Hash: MD5 hash of the meme content.
// Returns:
//   - bool: true if a record exists.
//   - error: non-nil if the lookup fails.
func (r *MemeRepository) ExistsByMD5Hash(ctx context.Context, md5Hash string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.AnnotatedMeme{}).Where("md5_hash = ?", md5Hash).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByStatus counts memes by annotation status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: annotation status to count.
// Returns:
//   - int64: number of matching records.
//   - error: non-nil if the query fails.
func (r *MemeRepository) CountByStatus(ctx context.Context, status domain.AnnotationStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.AnnotatedMeme{}).Where("annotation_status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// toLowerPattern lowercases a LIKE fragment and escapes its wildcards.
func toLowerPattern(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '%', '_':
			out = append(out, '\\', r)
		default:
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			out = append(out, r)
		}
	}
	return string(out)
}
