package variant

import "errors"

var (
	ErrStorageError      = errors.New("storage error")
	ErrStorageValidation = errors.New("storage validation failed")
)
