package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"taxaformer/internal/backend"
	"taxaformer/internal/util"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

// statusFor picks the HTTP status for errors coming out of the domain packages.
func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrMissingMetadata):
		return http.StatusConflict
	case errors.Is(err, util.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, util.ErrNoSequences):
		return http.StatusUnprocessableEntity
	}
	switch backend.ClassifyError(err) {
	case backend.ErrorUnavailable:
		return http.StatusBadGateway
	case backend.ErrorRejected:
		return http.StatusBadRequest
	case backend.ErrorMalformed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "TF-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "TF-API-5020", Message: "Classification backend unavailable. Retry shortly."}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "TF-API-5030", Message: "Report workflows are not enabled on this server."}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{Code: "TF-DB-5001", Message: "Results table is missing. Check the datastore configuration."}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{Code: "TF-DB-5002", Message: "Datastore connection is unavailable. Check local services and retry."}
		default:
			return apiError{Code: "TF-API-5000", Message: "Internal server error. Please retry or check service logs."}
		}
	case status == http.StatusBadRequest:
		code = "TF-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "TF-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "TF-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusConflict:
		code = "TF-API-4009"
		msg = "No analysis results available for this job yet."
	case status == http.StatusUnsupportedMediaType:
		code = "TF-API-4015"
		msg = "Unsupported file type. Use .fasta, .fa, .fastq, .fq or .txt."
	case status == http.StatusUnprocessableEntity:
		code = "TF-API-4022"
		msg = "The uploaded file contains no sequences."
	}

	// For 4xx, keep user-safe validation context only.
	if status == http.StatusBadRequest && err != nil {
		switch {
		case strings.Contains(raw, "file is required"):
			msg = "A sequence file is required."
		case strings.Contains(raw, "invalid metadata"):
			msg = "Metadata must be a JSON object."
		case strings.Contains(raw, "unknown bucket kind"):
			msg = "Bucket kind must be novelty or confidence."
		case strings.Contains(raw, "job_ids"):
			msg = "At least one job id is required."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}
	return apiError{Code: code, Message: msg}
}
