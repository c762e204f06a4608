package operations

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"portfolio-gallery/internal/domain"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

type EncodeOptions struct {
	Format  domain.ImageFormat
	Quality int
	Effort  int
}

// Encoder writes JPEG with the standard library and hands WebP and AVIF
// to libvips. vips.Startup must have been called before WebP or AVIF use.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Encode(img image.Image, opts EncodeOptions) ([]byte, error) {
	quality := clamp(opts.Quality, 1, 100)

	switch opts.Format {
	case domain.FormatJPEG:
		return e.encodeJPEG(img, quality)
	case domain.FormatWebP:
		return e.encodeVips(img, func(ref *vips.ImageRef) ([]byte, error) {
			params := vips.NewWebpExportParams()
			params.Quality = quality
			params.ReductionEffort = clamp(opts.Effort, 0, 6)
			params.StripMetadata = true
			data, _, err := ref.ExportWebp(params)
			return data, err
		})
	case domain.FormatAVIF:
		return e.encodeVips(img, func(ref *vips.ImageRef) ([]byte, error) {
			params := vips.NewAvifExportParams()
			params.Quality = quality
			params.Effort = clamp(opts.Effort, 0, 9)
			params.StripMetadata = true
			data, _, err := ref.ExportAvif(params)
			return data, err
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
}

func (e *Encoder) encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Encoder) encodeVips(img image.Image, export func(ref *vips.ImageRef) ([]byte, error)) ([]byte, error) {
	raw := new(bytes.Buffer)
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(raw, img); err != nil {
		return nil, fmt.Errorf("failed to hand image to libvips: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(raw.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to load image into libvips: %w", err)
	}
	defer ref.Close()

	data, err := export(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to export image: %w", err)
	}
	return data, nil
}

// flatten composites translucent images onto white, since JPEG has no alpha.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	bounds := img.Bounds()
	bg := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
