package manifest

import "errors"

var (
	ErrManifestUnavailable = errors.New("manifest unavailable")
	ErrInvalidSlug         = errors.New("invalid category slug")
	ErrCorruptManifest     = errors.New("manifest is not valid json")
)
