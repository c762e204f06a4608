package remote

import "errors"

var (
	ErrConfiguration = errors.New("remote storage not configured")
	ErrAuth          = errors.New("remote storage authentication failed")
	ErrForbidden     = errors.New("remote storage access denied")
	ErrNotFound      = errors.New("remote item not found")
	ErrUpstream      = errors.New("remote storage request failed")
)
