package processor

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"strings"
	"testing"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/usecase/processor/operations"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func TestMain(m *testing.M) {
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(nil)
	code := m.Run()
	vips.Shutdown()
	os.Exit(code)
}

func newTestProcessor(t *testing.T) *ImageProcessor {
	t.Helper()
	zlog.Init()
	p, err := NewImageProcessor(operations.WatermarkOptions{}, &zlog.Logger)
	require.NoError(t, err)
	return p
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, gradient(w, h)))
	return buf.Bytes()
}

func jpegOpts() EncodeOptions {
	return EncodeOptions{Format: domain.FormatJPEG, Quality: 90}
}

func TestDecode_Invalid(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.Decode([]byte("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = p.Decode(nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecode_PNG(t *testing.T) {
	p := newTestProcessor(t)

	img, err := p.Decode(pngBytes(t, 64, 48))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestResizeTo_NeverUpscales(t *testing.T) {
	p := newTestProcessor(t)

	for _, target := range []int{400, 800, 2048} {
		out, err := p.ResizeTo(jpegBytes(t, 400, 300), target, jpegOpts())
		require.NoError(t, err)
		assert.Equal(t, 400, out.Width, "target %d", target)
		assert.Equal(t, 300, out.Height, "target %d", target)
	}
}

func TestResizeTo_FitsLongerSide(t *testing.T) {
	p := newTestProcessor(t)

	landscape, err := p.ResizeTo(jpegBytes(t, 1200, 900), 800, jpegOpts())
	require.NoError(t, err)
	assert.Equal(t, 800, landscape.Width)
	assert.Equal(t, 600, landscape.Height)

	portrait, err := p.ResizeTo(jpegBytes(t, 900, 1200), 800, jpegOpts())
	require.NoError(t, err)
	assert.Equal(t, 600, portrait.Width)
	assert.Equal(t, 800, portrait.Height)

	decoded, _, err := image.Decode(bytes.NewReader(landscape.Data))
	require.NoError(t, err)
	assert.Equal(t, 800, decoded.Bounds().Dx())
}

func TestResizeTo_PreservesAspectRatio(t *testing.T) {
	p := newTestProcessor(t)

	sizes := [][2]int{{1000, 333}, {333, 1000}, {1280, 720}, {1001, 999}, {1500, 1000}}
	for _, size := range sizes {
		w, h := size[0], size[1]
		out, err := p.ResizeTo(jpegBytes(t, w, h), 500, jpegOpts())
		require.NoError(t, err)

		assert.LessOrEqual(t, out.Width, 500)
		assert.LessOrEqual(t, out.Height, 500)
		if w >= h {
			assert.Equal(t, 500, out.Width)
			assert.InDelta(t, float64(h)*500/float64(w), float64(out.Height), 1, "%dx%d", w, h)
		} else {
			assert.Equal(t, 500, out.Height)
			assert.InDelta(t, float64(w)*500/float64(h), float64(out.Width), 1, "%dx%d", w, h)
		}
	}
}

func TestResizeTo_ZeroTargetOnlyReencodes(t *testing.T) {
	p := newTestProcessor(t)

	out, err := p.ResizeTo(pngBytes(t, 300, 200), 0, jpegOpts())
	require.NoError(t, err)
	assert.Equal(t, 300, out.Width)
	assert.Equal(t, 200, out.Height)
	assert.Equal(t, domain.FormatJPEG, out.Format)

	_, err = jpeg.Decode(bytes.NewReader(out.Data))
	assert.NoError(t, err)
}

func TestResizeTo_WebP(t *testing.T) {
	p := newTestProcessor(t)

	out, err := p.ResizeTo(jpegBytes(t, 640, 480), 320, EncodeOptions{Format: domain.FormatWebP, Quality: 90, Effort: 4})
	require.NoError(t, err)
	require.Greater(t, len(out.Data), 12)
	assert.Equal(t, "RIFF", string(out.Data[0:4]))
	assert.Equal(t, "WEBP", string(out.Data[8:12]))
	assert.Equal(t, 320, out.Width)
	assert.Equal(t, 240, out.Height)
}

func TestResizeTo_AVIF(t *testing.T) {
	p := newTestProcessor(t)

	out, err := p.ResizeTo(jpegBytes(t, 320, 240), 160, EncodeOptions{Format: domain.FormatAVIF, Quality: 65, Effort: 4})
	if err != nil {
		require.ErrorIs(t, err, ErrTranscode)
		t.Skipf("libvips built without AVIF support: %v", err)
	}
	assert.Equal(t, "ftyp", string(out.Data[4:8]))
	assert.Equal(t, 160, out.Width)
}

func TestResizeTo_UnsupportedFormat(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ResizeTo(jpegBytes(t, 32, 32), 0, EncodeOptions{Format: "bmp", Quality: 90})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranscode)
	assert.ErrorIs(t, err, operations.ErrUnsupportedFormat)
}

func TestBlurPlaceholder(t *testing.T) {
	p := newTestProcessor(t)

	img, err := p.Decode(jpegBytes(t, 1200, 800))
	require.NoError(t, err)

	url, err := p.BlurPlaceholder(img)
	require.NoError(t, err)

	const prefix = "data:image/webp;base64,"
	require.True(t, strings.HasPrefix(url, prefix))

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	assert.Less(t, len(data), 2048)
	assert.Equal(t, "WEBP", string(data[8:12]))
}

func TestTransform_Watermark(t *testing.T) {
	zlog.Init()
	p, err := NewImageProcessor(operations.WatermarkOptions{Text: "© Studio", Opacity: 1, FontSize: 24}, &zlog.Logger)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 400, 200))

	plain, err := p.Transform(img, 0, EncodeOptions{Format: domain.FormatJPEG, Quality: 100})
	require.NoError(t, err)
	marked, err := p.Transform(img, 0, EncodeOptions{Format: domain.FormatJPEG, Quality: 100, Watermark: true})
	require.NoError(t, err)

	assert.Equal(t, plain.Width, marked.Width)
	assert.NotEqual(t, plain.Data, marked.Data)
}

func TestTransform_ResultWithinTarget(t *testing.T) {
	p := newTestProcessor(t)
	img := gradient(3000, 2000)

	out, err := p.Transform(img, 800, jpegOpts())
	require.NoError(t, err)
	ratio := float64(out.Width) / float64(out.Height)
	assert.InDelta(t, 1.5, ratio, 0.01)
	assert.Equal(t, 800, int(math.Max(float64(out.Width), float64(out.Height))))
}
