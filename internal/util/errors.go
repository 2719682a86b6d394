package util

import "errors"

var (
	// ErrMissingMetadata means a report was requested before any result was loaded.
	ErrMissingMetadata = errors.New("report data has no metadata")

	ErrUpstreamUnavailable = errors.New("classification backend unavailable")
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedFile     = errors.New("unsupported file type")
	ErrNoSequences         = errors.New("no sequences in input")
)
