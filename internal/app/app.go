package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "portfolio-gallery/internal/broker/kafka"
	"portfolio-gallery/internal/config"
	gallery_h "portfolio-gallery/internal/http-server/handler/gallery"
	generation_h "portfolio-gallery/internal/http-server/handler/generation"
	image_h "portfolio-gallery/internal/http-server/handler/image"
	"portfolio-gallery/internal/http-server/router"
	"portfolio-gallery/internal/repository/manifest/fs"
	"portfolio-gallery/internal/repository/remote/drive"
	postgres_repo "portfolio-gallery/internal/repository/run/db/postgres"
	minio_repo "portfolio-gallery/internal/repository/variant/cloud/minio"
	generation_uc "portfolio-gallery/internal/usecase/generation"
	"portfolio-gallery/internal/usecase/processor"
	"portfolio-gallery/internal/usecase/proxy"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// App is the HTTP server: the image proxy plus the manifest and
// generation endpoints. Postgres, MinIO and Kafka are each optional.
type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.Publisher
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	ctx := context.Background()
	retries := cfg.DefaultRetryStrategy()

	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(nil)

	files, err := drive.NewFileRepository(ctx, cfg.Drive, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive repository: %w", err)
	}

	imageProcessor, err := processor.NewImageProcessor(processor.WatermarkOptions(cfg.Proxy.Watermark), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image processor: %w", err)
	}

	var proxyUsecase *proxy.ProxyUsecase
	if cfg.Minio.Enabled() {
		variants, err := minio_repo.NewMinIORepository(ctx, cfg.Minio, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create variant cache: %w", err)
		}
		proxyUsecase = proxy.NewProxyUsecase(files, imageProcessor, variants, cfg, logger)
	} else {
		logger.Info().Msg("Variant cache disabled")
		proxyUsecase = proxy.NewProxyUsecase(files, imageProcessor, nil, cfg, logger)
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	generationUsecase, err := a.newGenerationUsecase(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	manifests := fs.NewManifestRepository(cfg.Gallery.OutputDir, cfg.Gallery.PublicPath, logger)

	h := &router.Handler{
		ImageHandler:      image_h.NewImageHandler(proxyUsecase, logger),
		GalleryHandler:    gallery_h.NewGalleryHandler(manifests, logger),
		GenerationHandler: generation_h.NewGenerationHandler(generationUsecase, logger),
		StaticDir:         cfg.Gallery.OutputDir,
		PublicPath:        cfg.Gallery.PublicPath,
	}

	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

// newGenerationUsecase wires the optional run ledger and task queue.
func (a *App) newGenerationUsecase(ctx context.Context) (*generation_uc.GenerationUsecase, error) {
	cfg := a.cfg

	var runs *postgres_repo.RunRepository
	if cfg.DB.Enabled() {
		db, err := dbpg.New(cfg.DBDSN(), []string{}, &dbpg.Options{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		runs = postgres_repo.NewRunRepository(db, cfg.DefaultRetryStrategy())
		if err := runs.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.Kafka.Enabled() {
		a.producer = kafka_impl.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.RegenerateTopic, cfg.DefaultRetryStrategy())
	}

	switch {
	case runs != nil && a.producer != nil:
		return generation_uc.NewGenerationUsecase(a.producer, runs, cfg, a.logger), nil
	case runs != nil:
		return generation_uc.NewGenerationUsecase(nil, runs, cfg, a.logger), nil
	case a.producer != nil:
		return generation_uc.NewGenerationUsecase(a.producer, nil, cfg, a.logger), nil
	default:
		return generation_uc.NewGenerationUsecase(nil, nil, cfg, a.logger), nil
	}
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		a.close()
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		a.close()
		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) close() {
	if a.db != nil && a.db.Master != nil {
		if err := a.db.Master.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database")
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close producer")
		}
	}

	vips.Shutdown()
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
