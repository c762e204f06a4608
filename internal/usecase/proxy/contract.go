package proxy

import (
	"context"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/usecase/processor"
)

type fileRepository interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

type imageTransformer interface {
	ResizeTo(data []byte, target int, opts processor.EncodeOptions) (*domain.EncodedImage, error)
}

type variantCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
