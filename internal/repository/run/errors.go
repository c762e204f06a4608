package run

import "errors"

var (
	ErrRunNotFound  = errors.New("generation run not found")
	ErrDuplicateRun = errors.New("generation run already recorded")
)
