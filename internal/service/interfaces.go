package service

import (
	"context"

	"github.com/hvvlab/memeboard/internal/domain"
)

// MemeStore is the slice of the record store the annotation services need.
// *repository.MemeRepository satisfies it.
type MemeStore interface {
	GetByID(ctx context.Context, id string) (*domain.AnnotatedMeme, error)
	List(ctx context.Context) ([]domain.AnnotatedMeme, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// Annotator is the external annotation collaborator.
// *annotation.Client satisfies it.
type Annotator interface {
	IsConfigured() bool
	Annotate(ctx context.Context, memeID, memeURL string) (*domain.AnnotationResult, error)
	GenerateContext(ctx context.Context, memeID, memeURL string) (string, error)
}

// RunStore records batch annotation runs.
// *repository.RunRepository satisfies it.
type RunStore interface {
	Create(ctx context.Context, run *domain.AnnotationRun) error
	Update(ctx context.Context, run *domain.AnnotationRun) error
}
