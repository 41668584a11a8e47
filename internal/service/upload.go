package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/logger"
	"github.com/hvvlab/memeboard/internal/storage"
	_ "golang.org/x/image/webp"
)

// MemeCreator is the slice of the store the upload pipeline needs.
// *repository.MemeRepository satisfies it.
type MemeCreator interface {
	Create(ctx context.Context, meme *domain.AnnotatedMeme) error
	ExistsByMD5Hash(ctx context.Context, md5Hash string) (bool, error)
}

var allowedContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// UploadFile is one file of a batch upload.
type UploadFile struct {
	Name    string
	Content []byte
}

// FileResult reports the outcome for one uploaded file.
type FileResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"` // success, error, skipped
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
	MemeID   string `json:"meme_id,omitempty"`
}

// UploadReport aggregates a batch upload.
type UploadReport struct {
	TotalFiles        int          `json:"total_files"`
	SuccessfulUploads int          `json:"successful_uploads"`
	FailedUploads     int          `json:"failed_uploads"`
	SkippedUploads    int          `json:"skipped_uploads"`
	Results           []FileResult `json:"results"`
	SuccessRate       string       `json:"success_rate"`
}

// UploadConfig holds limits for the upload pipeline.
type UploadConfig struct {
	MaxFileSizeMB int
	MaxFiles      int
}

// UploadService ingests uploaded images: validation, duplicate detection,
// object storage, and meme record creation with status uploaded.
type UploadService struct {
	store       MemeCreator
	storage     storage.ObjectStorage
	workspace   *Workspace
	logger      *logger.Logger
	maxFileSize int64
	maxFiles    int
}

// NewUploadService creates a new upload service.
// Parameters:
//   - store: meme record store.
//   - objectStorage: image object storage.
//   - workspace: shared in-memory collection; new memes are appended to it.
//   - log: structured logger.
//   - cfg: upload limits; zero values fall back to 10MB / 2500 files.
// Returns:
//   - *UploadService: initialized service.
func NewUploadService(store MemeCreator, objectStorage storage.ObjectStorage, workspace *Workspace, log *logger.Logger, cfg *UploadConfig) *UploadService {
	maxMB := 10
	maxFiles := 2500
	if cfg != nil {
		if cfg.MaxFileSizeMB > 0 {
			maxMB = cfg.MaxFileSizeMB
		}
		if cfg.MaxFiles > 0 {
			maxFiles = cfg.MaxFiles
		}
	}
	return &UploadService{
		store:       store,
		storage:     objectStorage,
		workspace:   workspace,
		logger:      log,
		maxFileSize: int64(maxMB) * 1024 * 1024,
		maxFiles:    maxFiles,
	}
}

// UploadBatch processes a set of files independently: one bad file never
// aborts the batch. Duplicates (same MD5) are skipped, not failed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - files: uploaded files.
// Returns:
//   - *UploadReport: per-file results and totals.
//   - error: non-nil only when the batch itself is rejected (too many files).
func (s *UploadService) UploadBatch(ctx context.Context, files []UploadFile) (*UploadReport, error) {
	if len(files) > s.maxFiles {
		return nil, fmt.Errorf("too many files: %d exceeds the limit of %d", len(files), s.maxFiles)
	}

	report := &UploadReport{TotalFiles: len(files)}
	for _, f := range files {
		result := s.uploadOne(ctx, f)
		switch result.Status {
		case "success":
			report.SuccessfulUploads++
		case "skipped":
			report.SkippedUploads++
		default:
			report.FailedUploads++
		}
		report.Results = append(report.Results, result)
	}

	if report.TotalFiles > 0 {
		report.SuccessRate = fmt.Sprintf("%.0f%%", float64(report.SuccessfulUploads)/float64(report.TotalFiles)*100)
	}

	logger.With(logger.Fields{logger.FieldCount: report.TotalFiles}).
		Info(ctx, "Upload batch finished: %d successful, %d failed, %d skipped",
			report.SuccessfulUploads, report.FailedUploads, report.SkippedUploads)

	return report, nil
}

func (s *UploadService) uploadOne(ctx context.Context, f UploadFile) FileResult {
	if int64(len(f.Content)) > s.maxFileSize {
		return FileResult{Filename: f.Name, Status: "error",
			Error: fmt.Sprintf("file size %d exceeds limit of %d bytes", len(f.Content), s.maxFileSize)}
	}

	contentType := http.DetectContentType(f.Content)
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return FileResult{Filename: f.Name, Status: "error",
			Error: fmt.Sprintf("unsupported content type %s", contentType)}
	}

	sum := md5.Sum(f.Content)
	md5Hash := hex.EncodeToString(sum[:])

	exists, err := s.store.ExistsByMD5Hash(ctx, md5Hash)
	if err != nil {
		return FileResult{Filename: f.Name, Status: "error", Error: err.Error()}
	}
	if exists {
		return FileResult{Filename: f.Name, Status: "skipped", Message: "duplicate image"}
	}

	// Dimensions are informational; a decode failure is not fatal
	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Content)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	id := uuid.New().String()
	key := fmt.Sprintf("memes/%s.%s", id, ext)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(f.Content), int64(len(f.Content)), contentType); err != nil {
		s.logger.WithError(err).WithField("filename", f.Name).Error("Failed to store upload")
		return FileResult{Filename: f.Name, Status: "error", Error: err.Error()}
	}

	meme := &domain.AnnotatedMeme{
		ID:               id,
		FileName:         sanitizeFileName(f.Name),
		UploadedMemeURL:  s.storage.GetURL(key),
		MD5Hash:          md5Hash,
		Width:            width,
		Height:           height,
		Heroes:           domain.StringArray{},
		Villains:         domain.StringArray{},
		Victims:          domain.StringArray{},
		OtherRoles:       domain.StringArray{},
		AnnotationStatus: domain.StatusUploaded,
	}
	if err := s.store.Create(ctx, meme); err != nil {
		s.logger.WithError(err).WithField("filename", f.Name).Error("Failed to create meme record")
		return FileResult{Filename: f.Name, Status: "error", Error: err.Error()}
	}

	s.workspace.Add(*meme)
	return FileResult{Filename: f.Name, Status: "success", MemeID: id, Message: "uploaded"}
}

// sanitizeFileName strips any path components from a client-supplied name.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return path.Base(name)
}
