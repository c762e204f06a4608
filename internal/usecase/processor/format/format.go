// Package format renders image metadata as the human readable strings
// stored in gallery manifests.
package format

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"portfolio-gallery/internal/domain"
)

const settingsSeparator = " · "

var captureLayouts = []string{
	"2006:01:02 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Exposure renders an exposure time in seconds as a photographic value:
// 2 -> "2s", 0.008 -> "1/125s".
func Exposure(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	if seconds >= 1 {
		return number(seconds) + "s"
	}
	return fmt.Sprintf("1/%ds", int64(math.Round(1/seconds)))
}

func FileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/1024/1024)
	}
}

func Camera(meta *domain.ImageMetadata) string {
	if meta == nil {
		return ""
	}

	brand := strings.TrimSpace(meta.CameraMake)
	model := strings.TrimSpace(meta.CameraModel)
	switch {
	case model == "":
		return brand
	case brand == "" || strings.HasPrefix(strings.ToLower(model), strings.ToLower(brand)):
		return model
	default:
		return brand + " " + model
	}
}

// Settings joins the available exposure values, e.g.
// "50mm · f/1.8 · 1/125s · ISO 100".
func Settings(meta *domain.ImageMetadata) string {
	if meta == nil {
		return ""
	}

	var parts []string
	if meta.FocalLength > 0 {
		parts = append(parts, number(meta.FocalLength)+"mm")
	}
	if meta.Aperture > 0 {
		parts = append(parts, "f/"+number(meta.Aperture))
	}
	if exp := Exposure(meta.ExposureTime); exp != "" {
		parts = append(parts, exp)
	}
	if meta.ISO > 0 {
		parts = append(parts, "ISO "+strconv.Itoa(meta.ISO))
	}
	return strings.Join(parts, settingsSeparator)
}

// Date prefers the embedded capture time and falls back to the upload time.
func Date(captureTime string, created time.Time) string {
	if captureTime = strings.TrimSpace(captureTime); captureTime != "" {
		for _, layout := range captureLayouts {
			if t, err := time.Parse(layout, captureTime); err == nil {
				return t.Format("January 2, 2006")
			}
		}
	}
	if created.IsZero() {
		return ""
	}
	return created.UTC().Format("January 2, 2006")
}

func Location(loc *domain.GeoLocation) string {
	if loc == nil {
		return ""
	}

	ns, ew := "N", "E"
	if loc.Latitude < 0 {
		ns = "S"
	}
	if loc.Longitude < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f°%s, %.4f°%s", math.Abs(loc.Latitude), ns, math.Abs(loc.Longitude), ew)
}

// Title strips the extension from a file name.
func Title(filename string) string {
	base := filepath.Base(filename)
	if title := strings.TrimSuffix(base, filepath.Ext(base)); title != "" {
		return title
	}
	return base
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
