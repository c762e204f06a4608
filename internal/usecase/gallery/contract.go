package gallery

import (
	"context"
	"image"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/usecase/processor"
)

type fileRepository interface {
	List(ctx context.Context, folderID string, mimeTypes []string) ([]domain.RemoteImageFile, error)
	Stat(ctx context.Context, fileID string) (*domain.RemoteImageFile, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

type imageProcessor interface {
	Decode(data []byte) (image.Image, error)
	Transform(img image.Image, target int, opts processor.EncodeOptions) (*domain.EncodedImage, error)
	BlurPlaceholder(img image.Image) (string, error)
}

type manifestRepository interface {
	SaveGallery(slug string, records []domain.GalleryImageRecord) error
	SaveCoverImage(slug string, format domain.ImageFormat, data []byte) (string, string, error)
	SaveCovers(records []domain.CoverThumbnailRecord) error
	LoadCovers() ([]domain.CoverThumbnailRecord, error)
}

type runRepository interface {
	SaveRun(ctx context.Context, report *domain.GenerationReport) error
}
