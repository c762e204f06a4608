package image

import (
	"context"

	"portfolio-gallery/internal/usecase/proxy"
)

type imageProxy interface {
	Handle(ctx context.Context, req proxy.Request) (*proxy.Result, error)
}
