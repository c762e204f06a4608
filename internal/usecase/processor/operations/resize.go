package operations

import (
	"image"

	"github.com/disintegration/imaging"
)

type Resizer struct {
	filter imaging.ResampleFilter
}

func NewResizer() *Resizer {
	return &Resizer{filter: imaging.Lanczos}
}

// Fit scales img so that its longer side is at most target, keeping the
// aspect ratio. Images that already fit are returned unchanged, as is
// every image when target is not positive.
func (r *Resizer) Fit(img image.Image, target int) image.Image {
	if target <= 0 {
		return img
	}

	bounds := img.Bounds()
	if bounds.Dx() <= target && bounds.Dy() <= target {
		return img
	}

	return imaging.Fit(img, target, target, r.filter)
}

// FitWidth scales img down to width, keeping the aspect ratio.
func (r *Resizer) FitWidth(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}

	return imaging.Resize(img, width, 0, r.filter)
}
