package processor

import "errors"

var (
	ErrDecode    = errors.New("failed to decode image")
	ErrTranscode = errors.New("failed to transcode image")
)
