package operations

import (
	"image"
	"image/color"
	"testing"

	"portfolio-gallery/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizer_Fit(t *testing.T) {
	r := NewResizer()

	img := image.NewRGBA(image.Rect(0, 0, 2000, 1500))
	out := r.Fit(img, 800)
	assert.Equal(t, 800, out.Bounds().Dx())
	assert.Equal(t, 600, out.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Same(t, small, r.Fit(small, 800))
	assert.Same(t, img, r.Fit(img, 0))
}

func TestResizer_FitWidth(t *testing.T) {
	r := NewResizer()

	out := r.FitWidth(image.NewRGBA(image.Rect(0, 0, 1200, 800)), 32)
	assert.Equal(t, 32, out.Bounds().Dx())
	assert.Equal(t, 21, out.Bounds().Dy())

	tiny := image.NewRGBA(image.Rect(0, 0, 16, 16))
	assert.Same(t, tiny, r.FitWidth(tiny, 32))
}

func TestWatermarker_Disabled(t *testing.T) {
	w, err := NewWatermarker(WatermarkOptions{})
	require.NoError(t, err)
	assert.False(t, w.Enabled())

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	out, err := w.Apply(img)
	require.NoError(t, err)
	assert.Same(t, img, out)
}

func TestWatermarker_DrawsText(t *testing.T) {
	positions := []domain.WatermarkPosition{
		domain.WatermarkTopLeft,
		domain.WatermarkBottomRight,
		domain.WatermarkCenter,
	}

	for _, pos := range positions {
		t.Run(string(pos), func(t *testing.T) {
			w, err := NewWatermarker(WatermarkOptions{Text: "Studio", Opacity: 1, FontSize: 24, Position: pos, Color: "255,0,0"})
			require.NoError(t, err)

			src := image.NewRGBA(image.Rect(0, 0, 300, 200))
			out, err := w.Apply(src)
			require.NoError(t, err)
			assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())

			changed := 0
			for y := 0; y < 200; y++ {
				for x := 0; x < 300; x++ {
					r, _, _, _ := out.At(x, y).RGBA()
					if r > 0 {
						changed++
					}
				}
			}
			assert.Positive(t, changed)

			r, _, _, _ := src.At(150, 100).RGBA()
			assert.Zero(t, r, "source image is left untouched")
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("10, 20, 30", 0.5)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 127}, c)

	c, err = parseColor("300,0,0,64", 1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 0, B: 0, A: 64}, c)

	_, err = parseColor("white", 1)
	assert.Error(t, err)
}
