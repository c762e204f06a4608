package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "portfolio-gallery/internal/broker/kafka"
	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/repository/manifest/fs"
	"portfolio-gallery/internal/repository/remote/drive"
	postgres_repo "portfolio-gallery/internal/repository/run/db/postgres"
	"portfolio-gallery/internal/usecase/gallery"
	"portfolio-gallery/internal/usecase/processor"
	"portfolio-gallery/internal/usecase/processor/operations"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

var ErrTaskStreamClosed = errors.New("task stream closed unexpectedly")

type generator interface {
	Run(ctx context.Context, opts gallery.RunOptions) (*domain.GenerationReport, error)
}

type taskSource interface {
	Deliveries(ctx context.Context, buffer int) <-chan kafka_impl.Delivery
	Ack(ctx context.Context, d kafka_impl.Delivery) error
	Close() error
}

type reportPublisher interface {
	PublishReport(ctx context.Context, report *domain.GenerationReport) error
	Close() error
}

// Worker consumes regeneration tasks and runs the gallery generator for
// each of them, one at a time.
type Worker struct {
	cfg       *config.Config
	logger    *zlog.Zerolog
	db        *dbpg.DB
	tasks     taskSource
	reports   reportPublisher
	generator generator
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	if !cfg.Kafka.Enabled() {
		return nil, fmt.Errorf("worker requires kafka brokers to be configured")
	}

	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(nil)

	ctx := context.Background()
	retries := cfg.DefaultRetryStrategy()

	files, err := drive.NewFileRepository(ctx, cfg.Drive, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive repository: %w", err)
	}

	imageProcessor, err := processor.NewImageProcessor(operations.WatermarkOptions{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image processor: %w", err)
	}

	manifests := fs.NewManifestRepository(cfg.Gallery.OutputDir, cfg.Gallery.PublicPath, logger)

	w := &Worker{
		cfg:     cfg,
		logger:  logger,
		tasks:   kafka_impl.NewTaskConsumer(cfg.Kafka, retries),
		reports: kafka_impl.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.GeneratedTopic, retries),
	}

	if cfg.DB.Enabled() {
		db, err := dbpg.New(cfg.DBDSN(), []string{}, &dbpg.Options{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		runs := postgres_repo.NewRunRepository(db, retries)
		if err := runs.Migrate(ctx); err != nil {
			return nil, err
		}

		w.db = db
		w.generator = gallery.NewGenerator(files, imageProcessor, manifests, runs, cfg, logger)
	} else {
		w.generator = gallery.NewGenerator(files, imageProcessor, manifests, nil, cfg, logger)
	}

	return w, nil
}

// Run blocks until a shutdown signal arrives or the task stream fails.
func (w *Worker) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries := w.tasks.Deliveries(ctx, w.cfg.Worker.Buffer)

	done := make(chan error, 1)
	go func() {
		done <- w.consume(ctx, deliveries)
	}()

	w.logger.Info().Str("topic", w.cfg.Kafka.RegenerateTopic).Msg("Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		w.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
		cancel()
		<-done
		return w.close()
	case err := <-done:
		w.logger.Error().Err(err).Msg("Consumer stopped")
		cancel()
		return errors.Join(err, w.close())
	}
}

func (w *Worker) consume(ctx context.Context, deliveries <-chan kafka_impl.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrTaskStreamClosed
			}
			w.processDelivery(ctx, d)
		}
	}
}

func (w *Worker) processDelivery(ctx context.Context, d kafka_impl.Delivery) {
	if d.Err != nil {
		w.logger.Error().Err(d.Err).Int64("offset", d.Offset).Msg("Dropping malformed task")
		w.ack(ctx, d, "")
		return
	}

	task := d.Task
	w.logger.Info().
		Str("task_id", task.ID).
		Strs("categories", task.Categories).
		Bool("covers", task.Covers).
		Msg("Processing regeneration task")

	report, err := w.handleTask(ctx, task)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// left uncommitted so the task is redelivered after restart
			w.logger.Warn().Str("task_id", task.ID).Msg("Task interrupted by shutdown")
			return
		}
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Regeneration failed")
	}

	if report != nil {
		if err := w.reports.PublishReport(ctx, report); err != nil {
			w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to send run report")
		}
	}

	w.ack(ctx, d, task.ID)
}

func (w *Worker) handleTask(ctx context.Context, task *domain.RegenerationTask) (*domain.GenerationReport, error) {
	runCtx := ctx
	if w.cfg.Worker.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.cfg.Worker.RunTimeout)
		defer cancel()
	}

	report, err := w.generator.Run(runCtx, gallery.RunOptions{
		TaskID:     task.ID,
		Categories: task.Categories,
		Covers:     task.Covers,
	})
	if err != nil && ctx.Err() != nil {
		return report, ctx.Err()
	}
	if report != nil {
		w.logger.Info().
			Str("task_id", task.ID).
			Str("run_id", report.RunID).
			Str("status", string(report.Status)).
			Int("records", report.Records()).
			Msg("Task completed")
	}
	return report, err
}

func (w *Worker) ack(ctx context.Context, d kafka_impl.Delivery, taskID string) {
	if err := w.tasks.Ack(ctx, d); err != nil {
		w.logger.Error().Err(err).Str("task_id", taskID).Int64("offset", d.Offset).Msg("Failed to commit message")
	}
}

func (w *Worker) close() error {
	var errs []error
	if err := w.tasks.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
	}
	if err := w.reports.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
	}
	if w.db != nil && w.db.Master != nil {
		if err := w.db.Master.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	vips.Shutdown()
	return errors.Join(errs...)
}
