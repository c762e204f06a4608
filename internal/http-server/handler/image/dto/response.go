package dto

const (
	CodeMissingParameter = "missing_parameter"
	CodeInvalidParameter = "invalid_parameter"
	CodeConfiguration    = "configuration"
	CodeAuth             = "auth"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeUpstream         = "upstream"
	CodeDecode           = "decode"
	CodeTranscode        = "transcode"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal"
)
