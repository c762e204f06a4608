package operations

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"portfolio-gallery/internal/domain"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const watermarkMargin = 20

type WatermarkOptions struct {
	Text     string
	Opacity  float64
	Position domain.WatermarkPosition
	FontSize float64
	Color    string
}

type Watermarker struct {
	font *truetype.Font
	opts WatermarkOptions
}

func NewWatermarker(opts WatermarkOptions) (*Watermarker, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	if opts.Opacity <= 0 {
		opts.Opacity = domain.DefaultWatermarkOpacity
	}
	if opts.FontSize <= 0 {
		opts.FontSize = domain.DefaultWatermarkSize
	}
	if opts.Position == "" {
		opts.Position = domain.WatermarkBottomRight
	}

	return &Watermarker{font: f, opts: opts}, nil
}

// Enabled reports whether there is any text to draw.
func (w *Watermarker) Enabled() bool {
	return w != nil && strings.TrimSpace(w.opts.Text) != ""
}

func (w *Watermarker) Apply(img image.Image) (image.Image, error) {
	if !w.Enabled() {
		return img, nil
	}

	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	col, err := parseColor(w.opts.Color, w.opts.Opacity)
	if err != nil {
		col = color.NRGBA{R: 255, G: 255, B: 255, A: uint8(255 * w.opts.Opacity)}
	}

	face := truetype.NewFace(w.font, &truetype.Options{
		Size:    w.opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	textWidth := font.MeasureString(face, w.opts.Text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(w.font)
	c.SetFontSize(w.opts.FontSize)
	c.SetClip(result.Bounds())
	c.SetDst(result)
	c.SetSrc(image.NewUniform(col))
	c.SetHinting(font.HintingFull)

	pt := textOrigin(w.opts.Position, result.Bounds(), textWidth, ascent)
	if _, err := c.DrawString(w.opts.Text, pt); err != nil {
		return nil, fmt.Errorf("failed to draw watermark text: %w", err)
	}

	return result, nil
}

// textOrigin returns the baseline start for text of the given width.
func textOrigin(position domain.WatermarkPosition, bounds image.Rectangle, textWidth, ascent int) fixed.Point26_6 {
	w, h := bounds.Dx(), bounds.Dy()
	top := watermarkMargin + ascent
	bottom := h - watermarkMargin
	left := watermarkMargin
	right := w - textWidth - watermarkMargin
	center := (w - textWidth) / 2

	switch position {
	case domain.WatermarkTopLeft:
		return freetype.Pt(left, top)
	case domain.WatermarkTopRight:
		return freetype.Pt(right, top)
	case domain.WatermarkTopCenter:
		return freetype.Pt(center, top)
	case domain.WatermarkBottomLeft:
		return freetype.Pt(left, bottom)
	case domain.WatermarkBottomCenter:
		return freetype.Pt(center, bottom)
	case domain.WatermarkCenter:
		return freetype.Pt(center, (h+ascent)/2)
	default:
		return freetype.Pt(right, bottom)
	}
}

// parseColor reads "r,g,b" or "r,g,b,a". Without an explicit alpha the
// opacity decides it.
func parseColor(colorStr string, opacity float64) (color.NRGBA, error) {
	fallback := color.NRGBA{R: 255, G: 255, B: 255, A: uint8(255 * opacity)}

	parts := strings.Split(strings.ReplaceAll(colorStr, " ", ""), ",")
	if len(parts) != 3 && len(parts) != 4 {
		return fallback, fmt.Errorf("invalid color format %q", colorStr)
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return fallback, fmt.Errorf("invalid color value %q", part)
		}
		values[i] = clamp(v, 0, 255)
	}

	a := uint8(255 * opacity)
	if len(values) == 4 {
		a = uint8(values[3])
	}

	return color.NRGBA{R: uint8(values[0]), G: uint8(values[1]), B: uint8(values[2]), A: a}, nil
}

func clamp(value, min, max int) int {
	return int(math.Max(float64(min), math.Min(float64(max), float64(value))))
}
