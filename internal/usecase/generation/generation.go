package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 100
)

// GenerationUsecase queues regeneration tasks for the worker and reads
// the run ledger. Either dependency may be nil when not configured.
type GenerationUsecase struct {
	publisher taskPublisher
	runs      runRepository
	known     map[string]bool
	logger    *zlog.Zerolog
	now       func() time.Time
}

func NewGenerationUsecase(publisher taskPublisher, runs runRepository, cfg *config.Config, logger *zlog.Zerolog) *GenerationUsecase {
	known := make(map[string]bool)
	for _, m := range cfg.CategoryMappings() {
		known[m.Slug] = true
	}

	return &GenerationUsecase{
		publisher: publisher,
		runs:      runs,
		known:     known,
		logger:    logger,
		now:       time.Now,
	}
}

func (u *GenerationUsecase) Enqueue(ctx context.Context, categories []string, covers bool) (*domain.RegenerationTask, error) {
	if u.publisher == nil {
		return nil, ErrQueueDisabled
	}

	var slugs []string
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !u.known[c] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, c)
		}
		slugs = append(slugs, c)
	}

	task := &domain.RegenerationTask{
		ID:          uuid.New().String(),
		Categories:  slugs,
		Covers:      covers,
		RequestedAt: u.now().UTC(),
	}

	if err := u.publisher.PublishTask(ctx, task); err != nil {
		u.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to publish regeneration task")
		return nil, fmt.Errorf("failed to publish task: %w", err)
	}

	u.logger.Info().
		Str("task_id", task.ID).
		Strs("categories", slugs).
		Bool("covers", covers).
		Msg("Regeneration task queued")

	return task, nil
}

func (u *GenerationUsecase) ListRuns(ctx context.Context, limit int) ([]domain.GenerationRun, error) {
	if u.runs == nil {
		return nil, ErrLedgerDisabled
	}

	switch {
	case limit <= 0:
		limit = DefaultRunsLimit
	case limit > MaxRunsLimit:
		limit = MaxRunsLimit
	}

	runs, err := u.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (u *GenerationUsecase) GetRun(ctx context.Context, id string) (*domain.GenerationRun, error) {
	if u.runs == nil {
		return nil, ErrLedgerDisabled
	}
	return u.runs.GetRun(ctx, id)
}
