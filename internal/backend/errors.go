package backend

import (
	"errors"
	"fmt"
	"strings"

	"taxaformer/internal/util"
)

type ErrorType string

const (
	ErrorUnavailable ErrorType = "unavailable"
	ErrorRejected    ErrorType = "rejected"
	ErrorMalformed   ErrorType = "malformed"
	ErrorPermanent   ErrorType = "permanent"
)

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Body)
}

// ClassifyError buckets a gateway error. Only ErrorUnavailable triggers the sample-data fallback.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, util.ErrUnsupportedFile) || errors.Is(err, util.ErrNoSequences) {
		return ErrorRejected
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code >= 500, se.Code == 429, se.Code == 408:
			return ErrorUnavailable
		case se.Code >= 400:
			return ErrorRejected
		}
	}
	if errors.Is(err, util.ErrUpstreamUnavailable) {
		return ErrorUnavailable
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "decode"), strings.Contains(e, "invalid character"), strings.Contains(e, "unexpected end of json"):
		return ErrorMalformed
	case strings.Contains(e, "timeout"), strings.Contains(e, "connection refused"), strings.Contains(e, "no such host"),
		strings.Contains(e, "unavailable"), strings.Contains(e, "eof"):
		return ErrorUnavailable
	default:
		return ErrorPermanent
	}
}
