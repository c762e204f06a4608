package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/usecase/processor/operations"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// EncodeOptions controls one transcode. Watermark only has an effect when
// the processor was built with watermark text.
type EncodeOptions struct {
	Format    domain.ImageFormat
	Quality   int
	Effort    int
	Watermark bool
}

type ImageProcessor struct {
	resizer     *operations.Resizer
	encoder     *operations.Encoder
	placeholder *operations.Placeholder
	watermarker *operations.Watermarker
	logger      *zlog.Zerolog
}

func NewImageProcessor(watermark operations.WatermarkOptions, logger *zlog.Zerolog) (*ImageProcessor, error) {
	resizer := operations.NewResizer()
	encoder := operations.NewEncoder()

	watermarker, err := operations.NewWatermarker(watermark)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermarker: %w", err)
	}

	return &ImageProcessor{
		resizer:     resizer,
		encoder:     encoder,
		placeholder: operations.NewPlaceholder(resizer, encoder),
		watermarker: watermarker,
		logger:      logger,
	}, nil
}

// Decode reads any supported raster format and applies EXIF orientation.
func (p *ImageProcessor) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// ResizeTo decodes data, fits it inside a target x target box and encodes
// it. A target of 0 only re-encodes.
func (p *ImageProcessor) ResizeTo(data []byte, target int, opts EncodeOptions) (*domain.EncodedImage, error) {
	img, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	return p.Transform(img, target, opts)
}

// Transform is ResizeTo for an already decoded image.
func (p *ImageProcessor) Transform(img image.Image, target int, opts EncodeOptions) (*domain.EncodedImage, error) {
	resized := p.resizer.Fit(img, target)

	if opts.Watermark && p.watermarker.Enabled() {
		marked, err := p.watermarker.Apply(resized)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranscode, err)
		}
		resized = marked
	}

	data, err := p.encoder.Encode(resized, operations.EncodeOptions{
		Format:  opts.Format,
		Quality: opts.Quality,
		Effort:  opts.Effort,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscode, err)
	}

	bounds := resized.Bounds()
	p.logger.Debug().
		Str("format", string(opts.Format)).
		Int("target", target).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("bytes", len(data)).
		Msg("Image transcoded")

	return &domain.EncodedImage{
		Data:   data,
		Format: opts.Format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// BlurPlaceholder returns a data URI preview small enough to inline.
func (p *ImageProcessor) BlurPlaceholder(img image.Image) (string, error) {
	url, err := p.placeholder.DataURL(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscode, err)
	}
	return url, nil
}
