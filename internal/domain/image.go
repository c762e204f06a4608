package domain

import "time"

// RemoteImageFile is one file as reported by the storage provider listing.
type RemoteImageFile struct {
	ID            string
	Name          string
	MimeType      string
	Size          int64
	CreatedTime   time.Time
	ImageMetadata *ImageMetadata
}

// ImageMetadata holds the embedded image metadata the provider extracted.
// Zero values mean the field was absent.
type ImageMetadata struct {
	Width        int
	Height       int
	CameraMake   string
	CameraModel  string
	Lens         string
	FocalLength  float64
	Aperture     float64
	ExposureTime float64
	ISO          int
	CaptureTime  string
	Location     *GeoLocation
}

type GeoLocation struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// HasDimensions reports whether both width and height were provided.
func (m *ImageMetadata) HasDimensions() bool {
	return m != nil && m.Width > 0 && m.Height > 0
}

type GalleryImageRecord struct {
	ID              string          `json:"id"`
	Src             string          `json:"src"`
	Thumbnail       string          `json:"thumbnail"`
	BlurPlaceholder string          `json:"blurPlaceholder,omitempty"`
	Title           string          `json:"title"`
	Alt             string          `json:"alt"`
	Category        string          `json:"category"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	Metadata        DisplayMetadata `json:"metadata"`
}

type DisplayMetadata struct {
	Camera   string `json:"camera,omitempty"`
	Lens     string `json:"lens,omitempty"`
	Settings string `json:"settings,omitempty"`
	Date     string `json:"date,omitempty"`
	FileSize string `json:"fileSize"`
	Location string `json:"location,omitempty"`
}

type CoverThumbnailRecord struct {
	CategorySlug string      `json:"categorySlug"`
	DisplayTitle string      `json:"displayTitle"`
	DisplayOrder int         `json:"displayOrder"`
	Filename     string      `json:"filename"`
	Path         string      `json:"path"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Size         int64       `json:"size"`
	Format       ImageFormat `json:"format"`
	BlurDataURL  string      `json:"blurDataURL"`
}

// CategoryFolderMapping is static display configuration for one category.
// The remote folder id is resolved from configuration by Slug.
type CategoryFolderMapping struct {
	Slug        string
	Title       string
	Description string
	Order       int
}

type ImageSize string

const (
	SizeThumbnail ImageSize = "thumbnail"
	SizeMedium    ImageSize = "medium"
	SizeFull      ImageSize = "full"
)

type ImageFormat string

const (
	FormatAuto ImageFormat = "auto"
	FormatWebP ImageFormat = "webp"
	FormatAVIF ImageFormat = "avif"
	FormatJPEG ImageFormat = "jpeg"
)

// ContentType returns the MIME type for an encoded output format.
func (f ImageFormat) ContentType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatAVIF:
		return "image/avif"
	default:
		return "image/jpeg"
	}
}

// Extension returns the file extension, without the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatWebP:
		return "webp"
	case FormatAVIF:
		return "avif"
	default:
		return "jpg"
	}
}

var AllowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/tiff",
	"image/bmp",
}

const (
	DefaultImageWidth  = 1920
	DefaultImageHeight = 1080
)

const (
	BlurPlaceholderWidth = 32
	BlurPlaceholderQual  = 20
	DefaultEffort        = 4
)

const (
	DefaultWatermarkOpacity = 0.5
	DefaultWatermarkSize    = 36
)

type WatermarkPosition string

const (
	WatermarkTopLeft      WatermarkPosition = "top-left"
	WatermarkTopRight     WatermarkPosition = "top-right"
	WatermarkTopCenter    WatermarkPosition = "top-center"
	WatermarkBottomLeft   WatermarkPosition = "bottom-left"
	WatermarkBottomRight  WatermarkPosition = "bottom-right"
	WatermarkBottomCenter WatermarkPosition = "bottom-center"
	WatermarkCenter       WatermarkPosition = "center"
)

// EncodedImage is one transcoded output with its final dimensions.
type EncodedImage struct {
	Data   []byte
	Format ImageFormat
	Width  int
	Height int
}
