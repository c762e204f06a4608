package drive

import (
	"time"

	"portfolio-gallery/internal/domain"

	drive "google.golang.org/api/drive/v3"
)

func toRemoteFile(f *drive.File) domain.RemoteImageFile {
	file := domain.RemoteImageFile{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
	}

	if f.CreatedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
			file.CreatedTime = t
		}
	}

	if f.ImageMediaMetadata != nil {
		file.ImageMetadata = toImageMetadata(f.ImageMediaMetadata)
	}

	return file
}

func toImageMetadata(m *drive.FileImageMediaMetadata) *domain.ImageMetadata {
	meta := &domain.ImageMetadata{
		Width:        int(m.Width),
		Height:       int(m.Height),
		CameraMake:   m.CameraMake,
		CameraModel:  m.CameraModel,
		Lens:         m.Lens,
		FocalLength:  m.FocalLength,
		Aperture:     m.Aperture,
		ExposureTime: m.ExposureTime,
		ISO:          int(m.IsoSpeed),
		CaptureTime:  m.Time,
	}

	// rotation counts clockwise quarter turns
	if m.Rotation%2 != 0 {
		meta.Width, meta.Height = meta.Height, meta.Width
	}

	if m.Location != nil && (m.Location.Latitude != 0 || m.Location.Longitude != 0) {
		meta.Location = &domain.GeoLocation{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
			Altitude:  m.Location.Altitude,
		}
	}

	return meta
}
