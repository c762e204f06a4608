package image

import (
	"context"
	"errors"

	"portfolio-gallery/internal/http-server/handler/image/dto"
	"portfolio-gallery/internal/repository/remote"
	"portfolio-gallery/internal/usecase/processor"
)

// errorCode classifies a downstream failure for the error body.
func errorCode(err error) string {
	switch {
	case errors.Is(err, remote.ErrConfiguration):
		return dto.CodeConfiguration
	case errors.Is(err, remote.ErrAuth):
		return dto.CodeAuth
	case errors.Is(err, remote.ErrForbidden):
		return dto.CodeForbidden
	case errors.Is(err, remote.ErrNotFound):
		return dto.CodeNotFound
	case errors.Is(err, remote.ErrUpstream):
		return dto.CodeUpstream
	case errors.Is(err, processor.ErrDecode):
		return dto.CodeDecode
	case errors.Is(err, processor.ErrTranscode):
		return dto.CodeTranscode
	case errors.Is(err, context.DeadlineExceeded):
		return dto.CodeTimeout
	default:
		return dto.CodeInternal
	}
}
