package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/repository/manifest"
	"portfolio-gallery/internal/repository/remote"
	"portfolio-gallery/internal/usecase/processor"
	"portfolio-gallery/internal/usecase/processor/format"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"
)

// RunOptions narrows a run. No categories means every configured one.
type RunOptions struct {
	TaskID     string
	Categories []string
	Covers     bool
}

type Generator struct {
	files     fileRepository
	processor imageProcessor
	manifests manifestRepository
	runs      runRepository
	cfg       *config.Config
	logger    *zlog.Zerolog
	now       func() time.Time
}

// NewGenerator wires the batch generator. runs may be nil.
func NewGenerator(files fileRepository, proc imageProcessor, manifests manifestRepository, runs runRepository, cfg *config.Config, logger *zlog.Zerolog) *Generator {
	return &Generator{
		files:     files,
		processor: proc,
		manifests: manifests,
		runs:      runs,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

type categoryResult struct {
	report domain.CategoryReport
	cover  *domain.CoverThumbnailRecord
}

// Run generates gallery manifests and covers. Failures of single items or
// whole categories are recorded in the report; only cancellation or a
// failure to write the covers manifest is returned as an error.
func (g *Generator) Run(ctx context.Context, opts RunOptions) (*domain.GenerationReport, error) {
	report := &domain.GenerationReport{
		RunID:     uuid.New().String(),
		TaskID:    opts.TaskID,
		StartedAt: g.now().UTC(),
	}

	mappings, unknown := g.selectCategories(opts.Categories)
	for _, slug := range unknown {
		g.logger.Warn().Str("category", slug).Msg("Unknown category requested, skipping")
	}

	g.logger.Info().
		Str("run_id", report.RunID).
		Int("categories", len(mappings)).
		Bool("covers", opts.Covers).
		Msg("Starting gallery generation")

	results := make([]categoryResult, len(mappings))

	limit := g.cfg.Gallery.Concurrency
	if limit < 1 {
		limit = 1
	}
	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, mapping := range mappings {
		eg.Go(func() error {
			results[i] = g.generateCategory(ctx, mapping, opts.Covers)
			return nil
		})
	}
	_ = eg.Wait()

	var covers []domain.CoverThumbnailRecord
	for _, res := range results {
		report.Categories = append(report.Categories, res.report)
		if res.cover != nil {
			covers = append(covers, *res.cover)
		}
	}
	for _, slug := range unknown {
		report.Categories = append(report.Categories, domain.CategoryReport{
			Slug:  slug,
			Error: fmt.Sprintf("%v: %s", ErrUnknownCategory, slug),
		})
	}

	var runErr error
	if err := ctx.Err(); err != nil {
		runErr = fmt.Errorf("generation interrupted: %w", err)
	} else if opts.Covers {
		written, err := g.writeCovers(covers, mappings, len(opts.Categories) > 0)
		if err != nil {
			runErr = err
		}
		report.Covers = written
	}

	report.Finalize(g.now().UTC())
	if runErr != nil {
		report.Status = domain.RunFailed
	}

	g.recordRun(ctx, report)

	g.logger.Info().
		Str("run_id", report.RunID).
		Str("status", string(report.Status)).
		Int("records", report.Records()).
		Int("skipped", report.SkippedCount()).
		Int("covers", report.Covers).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Gallery generation finished")

	return report, runErr
}

func (g *Generator) selectCategories(requested []string) ([]domain.CategoryFolderMapping, []string) {
	all := g.cfg.CategoryMappings()
	if len(requested) == 0 {
		return all, nil
	}

	bySlug := make(map[string]domain.CategoryFolderMapping, len(all))
	for _, m := range all {
		bySlug[m.Slug] = m
	}

	want := make(map[string]bool, len(requested))
	var unknown []string
	for _, slug := range requested {
		slug = strings.TrimSpace(slug)
		if _, ok := bySlug[slug]; !ok {
			unknown = append(unknown, slug)
			continue
		}
		want[slug] = true
	}

	var selected []domain.CategoryFolderMapping
	for _, m := range all {
		if want[m.Slug] {
			selected = append(selected, m)
		}
	}
	return selected, unknown
}

func (g *Generator) generateCategory(ctx context.Context, mapping domain.CategoryFolderMapping, withCover bool) categoryResult {
	res := categoryResult{report: domain.CategoryReport{Slug: mapping.Slug}}

	files, err := g.listCategory(ctx, mapping)
	if err == nil {
		err = g.writeGallery(ctx, mapping, files, &res.report)
	}
	if err != nil {
		res.report.Error = err.Error()
	}

	if !withCover || ctx.Err() != nil || errors.Is(err, remote.ErrAuth) {
		return res
	}

	cover, err := g.generateCover(ctx, mapping, files)
	if err != nil {
		g.logger.Warn().Err(err).Str("category", mapping.Slug).Msg("Cover not generated")
		res.report.Skipped = append(res.report.Skipped, domain.SkippedItem{
			Category: mapping.Slug,
			FileName: "cover",
			Reason:   err.Error(),
		})
		return res
	}
	res.cover = cover
	return res
}

func (g *Generator) listCategory(ctx context.Context, mapping domain.CategoryFolderMapping) ([]domain.RemoteImageFile, error) {
	folderID, ok := g.cfg.FolderID(mapping.Slug)
	if !ok {
		g.logger.Warn().Str("category", mapping.Slug).Msg("Category folder not configured, skipping")
		return nil, fmt.Errorf("%w: no folder id for category %s", remote.ErrConfiguration, mapping.Slug)
	}

	files, err := g.files.List(ctx, folderID, domain.AllowedMimeTypes)
	if err != nil {
		g.logger.Error().Err(err).Str("category", mapping.Slug).Str("folder_id", folderID).Msg("Failed to list category folder")
		return nil, fmt.Errorf("failed to list category %s: %w", mapping.Slug, err)
	}

	g.logger.Info().Str("category", mapping.Slug).Int("files", len(files)).Msg("Category listed")
	return files, nil
}

func (g *Generator) writeGallery(ctx context.Context, mapping domain.CategoryFolderMapping, files []domain.RemoteImageFile, report *domain.CategoryReport) error {
	records := make([]domain.GalleryImageRecord, 0, len(files))
	seen := make(map[string]bool, len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("category %s interrupted: %w", mapping.Slug, err)
		}
		if seen[file.ID] {
			continue
		}

		record, err := g.buildRecord(ctx, mapping, file)
		if err != nil {
			if errors.Is(err, remote.ErrAuth) || errors.Is(err, remote.ErrConfiguration) {
				return err
			}
			g.logger.Warn().
				Err(err).
				Str("category", mapping.Slug).
				Str("file_id", file.ID).
				Str("file_name", file.Name).
				Msg("Skipping image")
			report.Skipped = append(report.Skipped, domain.SkippedItem{
				Category: mapping.Slug,
				FileID:   file.ID,
				FileName: file.Name,
				Reason:   err.Error(),
			})
			continue
		}

		seen[file.ID] = true
		records = append(records, *record)
	}

	if err := g.manifests.SaveGallery(mapping.Slug, records); err != nil {
		g.logger.Error().Err(err).Str("category", mapping.Slug).Msg("Failed to write gallery manifest")
		return fmt.Errorf("failed to write gallery %s: %w", mapping.Slug, err)
	}

	report.Records = len(records)
	g.logger.Info().
		Str("category", mapping.Slug).
		Int("records", len(records)).
		Int("skipped", len(report.Skipped)).
		Msg("Gallery manifest written")
	return nil
}

func (g *Generator) buildRecord(ctx context.Context, mapping domain.CategoryFolderMapping, file domain.RemoteImageFile) (*domain.GalleryImageRecord, error) {
	title := format.Title(file.Name)
	meta := file.ImageMetadata

	record := &domain.GalleryImageRecord{
		ID:        file.ID,
		Src:       g.imageURL(file.ID, domain.SizeFull),
		Thumbnail: g.imageURL(file.ID, domain.SizeThumbnail),
		Title:     title,
		Alt:       title,
		Category:  mapping.Title,
	}

	if meta.HasDimensions() {
		record.Width, record.Height = meta.Width, meta.Height
	}

	size := file.Size
	if g.cfg.Gallery.BlurPlaceholders {
		data, err := g.files.Download(ctx, file.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		img, err := g.processor.Decode(data)
		if err != nil {
			return nil, err
		}
		blur, err := g.processor.BlurPlaceholder(img)
		if err != nil {
			return nil, err
		}

		record.BlurPlaceholder = blur
		if record.Width == 0 || record.Height == 0 {
			bounds := img.Bounds()
			record.Width, record.Height = bounds.Dx(), bounds.Dy()
		}
		if size <= 0 {
			size = int64(len(data))
		}
	}

	if record.Width == 0 || record.Height == 0 {
		record.Width, record.Height = domain.DefaultImageWidth, domain.DefaultImageHeight
	}

	display := domain.DisplayMetadata{
		Camera:   format.Camera(meta),
		Settings: format.Settings(meta),
		FileSize: format.FileSize(size),
	}
	var captureTime string
	if meta != nil {
		display.Lens = meta.Lens
		display.Location = format.Location(meta.Location)
		captureTime = meta.CaptureTime
	}
	display.Date = format.Date(captureTime, file.CreatedTime)
	record.Metadata = display

	return record, nil
}

func (g *Generator) generateCover(ctx context.Context, mapping domain.CategoryFolderMapping, files []domain.RemoteImageFile) (*domain.CoverThumbnailRecord, error) {
	fileID, ok := g.cfg.CoverFileID(mapping.Slug)
	if ok {
		// configured covers may live outside the category folder
		if _, err := g.files.Stat(ctx, fileID); err != nil {
			return nil, fmt.Errorf("cover %s: %w", fileID, err)
		}
	} else {
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: category %s", ErrNoCoverSource, mapping.Slug)
		}
		fileID = files[0].ID
	}

	data, err := g.files.Download(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover %s: %w", fileID, err)
	}
	img, err := g.processor.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("cover %s: %w", fileID, err)
	}

	encoded, err := g.processor.Transform(img, g.cfg.Gallery.CoverWidth, processor.EncodeOptions{
		Format:  domain.FormatWebP,
		Quality: g.cfg.Gallery.CoverQuality,
		Effort:  g.cfg.Gallery.CoverEffort,
	})
	if err != nil {
		return nil, fmt.Errorf("cover %s: %w", fileID, err)
	}

	blur, err := g.processor.BlurPlaceholder(img)
	if err != nil {
		return nil, fmt.Errorf("cover %s: %w", fileID, err)
	}

	filename, sitePath, err := g.manifests.SaveCoverImage(mapping.Slug, encoded.Format, encoded.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to write cover %s: %w", mapping.Slug, err)
	}

	g.logger.Info().
		Str("category", mapping.Slug).
		Str("file_id", fileID).
		Int("width", encoded.Width).
		Int("height", encoded.Height).
		Int("bytes", len(encoded.Data)).
		Msg("Cover written")

	return &domain.CoverThumbnailRecord{
		CategorySlug: mapping.Slug,
		DisplayTitle: mapping.Title,
		DisplayOrder: mapping.Order,
		Filename:     filename,
		Path:         sitePath,
		Width:        encoded.Width,
		Height:       encoded.Height,
		Size:         int64(len(encoded.Data)),
		Format:       encoded.Format,
		BlurDataURL:  blur,
	}, nil
}

// writeCovers replaces the covers manifest. When only some categories were
// regenerated, the entries of the others are carried over.
func (g *Generator) writeCovers(fresh []domain.CoverThumbnailRecord, regenerated []domain.CategoryFolderMapping, partial bool) (int, error) {
	covers := fresh
	if partial {
		existing, err := g.manifests.LoadCovers()
		if err != nil && !errors.Is(err, manifest.ErrManifestUnavailable) {
			g.logger.Warn().Err(err).Msg("Existing covers manifest unreadable, rewriting it")
		}

		touched := make(map[string]bool, len(regenerated))
		for _, m := range regenerated {
			touched[m.Slug] = true
		}
		for _, c := range existing {
			if !touched[c.CategorySlug] {
				covers = append(covers, c)
			}
		}
	}

	sort.SliceStable(covers, func(i, j int) bool {
		return covers[i].DisplayOrder < covers[j].DisplayOrder
	})

	if err := g.manifests.SaveCovers(covers); err != nil {
		g.logger.Error().Err(err).Msg("Failed to write covers manifest")
		return 0, fmt.Errorf("failed to write covers manifest: %w", err)
	}

	g.logger.Info().Int("covers", len(covers)).Msg("Covers manifest written")
	return len(covers), nil
}

func (g *Generator) recordRun(ctx context.Context, report *domain.GenerationReport) {
	if g.runs == nil {
		return
	}
	if err := g.runs.SaveRun(context.WithoutCancel(ctx), report); err != nil {
		g.logger.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to record generation run")
	}
}

func (g *Generator) imageURL(fileID string, size domain.ImageSize) string {
	base := strings.TrimRight(g.cfg.Gallery.ImageBaseURL, "/")
	return base + "/" + url.PathEscape(fileID) + "?size=" + string(size)
}
