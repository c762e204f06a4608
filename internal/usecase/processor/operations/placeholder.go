package operations

import (
	"encoding/base64"
	"fmt"
	"image"

	"portfolio-gallery/internal/domain"
)

// Placeholder renders tiny low quality previews inlined as data URIs.
type Placeholder struct {
	resizer *Resizer
	encoder *Encoder
	width   int
	quality int
}

func NewPlaceholder(resizer *Resizer, encoder *Encoder) *Placeholder {
	return &Placeholder{
		resizer: resizer,
		encoder: encoder,
		width:   domain.BlurPlaceholderWidth,
		quality: domain.BlurPlaceholderQual,
	}
}

func (p *Placeholder) DataURL(img image.Image) (string, error) {
	small := p.resizer.FitWidth(img, p.width)

	data, err := p.encoder.Encode(small, EncodeOptions{
		Format:  domain.FormatWebP,
		Quality: p.quality,
		Effort:  domain.DefaultEffort,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode placeholder: %w", err)
	}

	return "data:" + domain.FormatWebP.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
