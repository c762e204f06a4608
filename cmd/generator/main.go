package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/repository/manifest/fs"
	"portfolio-gallery/internal/repository/remote/drive"
	postgres_repo "portfolio-gallery/internal/repository/run/db/postgres"
	"portfolio-gallery/internal/usecase/gallery"
	"portfolio-gallery/internal/usecase/processor"
	"portfolio-gallery/internal/usecase/processor/operations"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	var (
		configPath string
		categories []string
		covers     bool
		outputDir  string
	)
	pflag.StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or config/config.yaml)")
	pflag.StringSliceVar(&categories, "category", nil, "category slug to regenerate, repeatable (default all)")
	pflag.BoolVar(&covers, "covers", true, "regenerate cover thumbnails")
	pflag.StringVarP(&outputDir, "output", "o", "", "output directory, overrides gallery.output_dir")
	pflag.Parse()

	zlog.Init()

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.MustLoad()
	}
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}
	if outputDir != "" {
		cfg.Gallery.OutputDir = outputDir
	}

	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(nil)
	defer vips.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := drive.NewFileRepository(ctx, cfg.Drive, cfg.DefaultRetryStrategy(), &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create drive repository")
	}

	imageProcessor, err := processor.NewImageProcessor(operations.WatermarkOptions{}, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create image processor")
	}

	manifests := fs.NewManifestRepository(cfg.Gallery.OutputDir, cfg.Gallery.PublicPath, &zlog.Logger)

	generator := gallery.NewGenerator(files, imageProcessor, manifests, nil, cfg, &zlog.Logger)
	if cfg.DB.Enabled() {
		db, err := dbpg.New(cfg.DBDSN(), []string{}, &dbpg.Options{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Master.Close()

		runs := postgres_repo.NewRunRepository(db, cfg.DefaultRetryStrategy())
		if err := runs.Migrate(ctx); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("Failed to migrate run ledger")
		}
		generator = gallery.NewGenerator(files, imageProcessor, manifests, runs, cfg, &zlog.Logger)
	}

	report, err := generator.Run(ctx, gallery.RunOptions{
		Categories: categories,
		Covers:     covers,
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("Generation failed")
		os.Exit(1)
	}

	// partial runs are the expected steady state; only a run where every
	// category failed is reported as a failure
	if report.Status == domain.RunFailed {
		os.Exit(1)
	}
}
