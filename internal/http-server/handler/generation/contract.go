package generation

import (
	"context"

	"portfolio-gallery/internal/domain"
)

type generationUsecase interface {
	Enqueue(ctx context.Context, categories []string, covers bool) (*domain.RegenerationTask, error)
	ListRuns(ctx context.Context, limit int) ([]domain.GenerationRun, error)
	GetRun(ctx context.Context, id string) (*domain.GenerationRun, error)
}
