package processor

import (
	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/usecase/processor/operations"
)

// WatermarkOptions maps the watermark settings onto the drawing options.
func WatermarkOptions(cfg config.WatermarkConfig) operations.WatermarkOptions {
	return operations.WatermarkOptions{
		Text:     cfg.Text,
		Opacity:  cfg.Opacity,
		Position: domain.WatermarkPosition(cfg.Position),
		FontSize: cfg.FontSize,
		Color:    cfg.Color,
	}
}
