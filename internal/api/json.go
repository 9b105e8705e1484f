package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/photoplay/internal/apperr"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps domain failures to status codes. Unknown errors are logged
// and reported as internal errors.
func writeError(w http.ResponseWriter, op string, err error) {
	status, code := http.StatusInternalServerError, ""
	switch {
	case errors.Is(err, payload.ErrMissingPayload):
		status, code = http.StatusBadRequest, "missing_payload"
	case errors.Is(err, payload.ErrMalformedPayload):
		status, code = http.StatusBadRequest, "malformed_payload"
	case errors.Is(err, payload.ErrInvalidContentURL):
		status, code = http.StatusBadRequest, "invalid_content_url"
	case errors.Is(err, apperr.ErrInvalidUpload), errors.Is(err, storage.ErrInvalidPath):
		status, code = http.StatusBadRequest, "invalid_upload"
	case errors.Is(err, payload.ErrUnsupportedKind):
		status, code = http.StatusUnprocessableEntity, "unsupported_kind"
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, storage.ErrStorageUnavailable):
		status, code = http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, storage.ErrUploadFailed):
		status, code = http.StatusBadGateway, "upload_failed"
	}

	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, status, errResponse{Error: "internal error"})
		return
	}
	if status >= 500 {
		slog.Warn(op+" failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, errResponse{Error: err.Error(), Code: code})
}
