package gallery

import "portfolio-gallery/internal/domain"

type manifestReader interface {
	LoadGallery(slug string) ([]domain.GalleryImageRecord, error)
	LoadCovers() ([]domain.CoverThumbnailRecord, error)
}
