package common

import "errors"

var (
	ErrMalformedHeader       = errors.New("archive magic mismatch")
	ErrTruncatedTable        = errors.New("record table truncated")
	ErrTruncatedRecord       = errors.New("record payload truncated")
	ErrUnsupportedColorDepth = errors.New("unsupported color depth")
	ErrUnsupportedRecordType = errors.New("unsupported record type")
	ErrInvalidDimensions     = errors.New("invalid image dimensions")
	ErrArchiveNotFound       = errors.New("archive not found")
	ErrOutputLocked          = errors.New("output is locked by another extraction")
	ErrDuplicateOutput       = errors.New("archives share an output name")
)
