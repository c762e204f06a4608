package dto

// ImageRequest is the query of an image proxy call. FileID comes from the
// path or, for the query form, from ?fileId=.
type ImageRequest struct {
	FileID string `validate:"required"`
	Size   string `validate:"omitempty,oneof=thumbnail medium full"`
	Format string `validate:"omitempty,oneof=auto webp avif jpeg jpg"`
}
