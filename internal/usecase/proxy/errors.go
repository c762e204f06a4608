package proxy

import "errors"

var (
	ErrMissingFileID = errors.New("missing required parameter: fileId")
	ErrInvalidSize   = errors.New("invalid size")
	ErrInvalidFormat = errors.New("invalid format")
)
