package gallery

import "errors"

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoCoverSource   = errors.New("no cover source file")
)
