package proxy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/usecase/processor"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/singleflight"
)

type Request struct {
	FileID string
	Size   domain.ImageSize
	Format domain.ImageFormat
	Accept string
}

type Result struct {
	Data      []byte
	Format    domain.ImageFormat
	Width     int
	Height    int
	FromCache bool
}

func (r *Result) ContentType() string {
	return r.Format.ContentType()
}

type ProxyUsecase struct {
	files       fileRepository
	transformer imageTransformer
	cache       variantCache
	widths      map[domain.ImageSize]int
	quality     map[domain.ImageFormat]int
	effort      int
	timeout     time.Duration
	group       singleflight.Group
	logger      *zlog.Zerolog
}

// NewProxyUsecase builds the on-demand renderer. cache may be nil.
func NewProxyUsecase(files fileRepository, transformer imageTransformer, cache variantCache, cfg *config.Config, logger *zlog.Zerolog) *ProxyUsecase {
	timeout := cfg.Proxy.UpstreamTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &ProxyUsecase{
		files:       files,
		transformer: transformer,
		cache:       cache,
		widths:      cfg.SizeWidths(),
		quality: map[domain.ImageFormat]int{
			domain.FormatWebP: cfg.Proxy.WebPQuality,
			domain.FormatAVIF: cfg.Proxy.AVIFQuality,
			domain.FormatJPEG: cfg.Proxy.JPEGQuality,
		},
		effort:  cfg.Proxy.Effort,
		timeout: timeout,
		logger:  logger,
	}
}

// Handle renders one variant of a remote image. Concurrent identical
// requests share a single download and transcode.
func (u *ProxyUsecase) Handle(ctx context.Context, req Request) (*Result, error) {
	fileID := strings.TrimSpace(req.FileID)
	if fileID == "" {
		return nil, ErrMissingFileID
	}

	size, ok := ParseSize(string(req.Size))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSize, req.Size)
	}
	width, ok := u.widths[size]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSize, req.Size)
	}

	requested, ok := ParseFormat(string(req.Format))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}

	format := NegotiateFormat(requested, req.Accept)
	key := VariantKey(fileID, size, format)

	// the shared render outlives a single caller's cancellation but not the
	// upstream timeout
	ch := u.group.DoChan(key, func() (any, error) {
		renderCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
		defer cancel()
		return u.render(renderCtx, key, fileID, size, width, format)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	}
}

func (u *ProxyUsecase) render(ctx context.Context, key, fileID string, size domain.ImageSize, width int, format domain.ImageFormat) (*Result, error) {
	if data, ok := u.cached(ctx, key); ok {
		u.logger.Debug().Str("key", key).Msg("Variant served from cache")
		return &Result{Data: data, Format: format, FromCache: true}, nil
	}

	original, err := u.files.Download(ctx, fileID)
	if err != nil {
		u.logger.Error().Err(err).Str("file_id", fileID).Msg("Failed to download original")
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}

	encoded, err := u.transformer.ResizeTo(original, width, processor.EncodeOptions{
		Format:    format,
		Quality:   u.quality[format],
		Effort:    u.effort,
		Watermark: size == domain.SizeFull,
	})
	if err != nil {
		u.logger.Error().Err(err).Str("file_id", fileID).Str("format", string(format)).Msg("Failed to transcode image")
		return nil, fmt.Errorf("failed to transcode file %s: %w", fileID, err)
	}

	u.store(ctx, key, encoded)

	u.logger.Info().
		Str("file_id", fileID).
		Str("size", string(size)).
		Str("format", string(format)).
		Int("width", encoded.Width).
		Int("height", encoded.Height).
		Int("bytes", len(encoded.Data)).
		Msg("Image variant rendered")

	return &Result{
		Data:   encoded.Data,
		Format: encoded.Format,
		Width:  encoded.Width,
		Height: encoded.Height,
	}, nil
}

func (u *ProxyUsecase) cached(ctx context.Context, key string) ([]byte, bool) {
	if u.cache == nil {
		return nil, false
	}

	data, ok, err := u.cache.Get(ctx, key)
	if err != nil {
		u.logger.Warn().Err(err).Str("key", key).Msg("Variant cache read failed")
		return nil, false
	}
	return data, ok && len(data) > 0
}

func (u *ProxyUsecase) store(ctx context.Context, key string, encoded *domain.EncodedImage) {
	if u.cache == nil {
		return
	}

	if err := u.cache.Put(ctx, key, encoded.Data, encoded.Format.ContentType()); err != nil {
		u.logger.Warn().Err(err).Str("key", key).Msg("Variant cache write failed")
	}
}
