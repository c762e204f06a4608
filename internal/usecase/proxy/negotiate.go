package proxy

import (
	"strconv"
	"strings"

	"portfolio-gallery/internal/domain"
)

// NegotiateFormat picks the output codec. An explicit format always wins;
// for auto the Accept header is checked for AVIF, then WebP, and JPEG is
// the fallback.
func NegotiateFormat(requested domain.ImageFormat, accept string) domain.ImageFormat {
	switch requested {
	case domain.FormatWebP, domain.FormatAVIF, domain.FormatJPEG:
		return requested
	}

	accepted := acceptedTypes(accept)
	switch {
	case accepted["image/avif"]:
		return domain.FormatAVIF
	case accepted["image/webp"]:
		return domain.FormatWebP
	default:
		return domain.FormatJPEG
	}
}

// acceptedTypes lists the media types of an Accept header, leaving out
// those refused with q=0.
func acceptedTypes(accept string) map[string]bool {
	types := make(map[string]bool)
	for _, part := range strings.Split(accept, ",") {
		fields := strings.Split(part, ";")
		mediaType := strings.ToLower(strings.TrimSpace(fields[0]))
		if mediaType == "" {
			continue
		}

		refused := false
		for _, param := range fields[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.TrimSpace(key) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && q <= 0 {
				refused = true
			}
		}

		if !refused {
			types[mediaType] = true
		}
	}
	return types
}

// ParseSize returns the size named by s; an empty value means full.
func ParseSize(s string) (domain.ImageSize, bool) {
	switch size := domain.ImageSize(strings.ToLower(strings.TrimSpace(s))); size {
	case "":
		return domain.SizeFull, true
	case domain.SizeThumbnail, domain.SizeMedium, domain.SizeFull:
		return size, true
	default:
		return "", false
	}
}

// ParseFormat returns the format named by s; an empty value means auto.
// "jpg" is accepted as an alias.
func ParseFormat(s string) (domain.ImageFormat, bool) {
	switch format := domain.ImageFormat(strings.ToLower(strings.TrimSpace(s))); format {
	case "":
		return domain.FormatAuto, true
	case "jpg":
		return domain.FormatJPEG, true
	case domain.FormatAuto, domain.FormatWebP, domain.FormatAVIF, domain.FormatJPEG:
		return format, true
	default:
		return "", false
	}
}

// VariantKey names a rendered variant in the cache.
func VariantKey(fileID string, size domain.ImageSize, format domain.ImageFormat) string {
	return domain.PathPrefixVariants + fileID + "/" + string(size) + "." + format.Extension()
}
