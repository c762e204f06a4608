package generation

import (
	"context"

	"portfolio-gallery/internal/domain"
)

type taskPublisher interface {
	PublishTask(ctx context.Context, task *domain.RegenerationTask) error
}

type runRepository interface {
	ListRuns(ctx context.Context, limit int) ([]domain.GenerationRun, error)
	GetRun(ctx context.Context, id string) (*domain.GenerationRun, error)
}
