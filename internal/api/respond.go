// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ManuGH/ffgate/internal/infra/ffmpeg"
	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/media"
)

// statusClientClosedRequest is logged when the client went away mid-job.
const statusClientClosedRequest = 499

// errorResponse is the JSON envelope for every failure.
type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg, details string) {
	writeJSON(w, code, errorResponse{
		Error:     msg,
		Details:   details,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// writeMediaError maps an error from upload handling or the media service
// to its HTTP status. This is the only place that classification happens.
func (s *Server) writeMediaError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := log.WithContext(r.Context(), s.logger)

	var maxBytes *http.MaxBytesError
	var exitErr *ffmpeg.ExitError
	var formatErr *ffmpeg.FormatError
	switch {
	case errors.Is(err, errTooLarge), errors.As(err, &maxBytes):
		writeError(w, r, http.StatusRequestEntityTooLarge, errTooLarge.Error(), "")

	case errors.Is(err, errNoFile):
		writeError(w, r, http.StatusBadRequest, errNoFile.Error(), "")

	case errors.Is(err, errInvalidMultipart):
		writeError(w, r, http.StatusBadRequest, errInvalidMultipart.Error(), "")

	case errors.As(err, &formatErr):
		writeError(w, r, http.StatusBadRequest, formatErr.Error(), "supported: "+strings.Join(formatErr.Supported, ", "))

	case errors.Is(err, ffmpeg.ErrUnsupportedFormat), errors.Is(err, ffmpeg.ErrInvalidOption):
		writeError(w, r, http.StatusBadRequest, err.Error(), "")

	case errors.Is(err, media.ErrBusy):
		w.Header().Set("Retry-After", "5")
		writeError(w, r, http.StatusServiceUnavailable, "server busy", "")

	case errors.As(err, &exitErr):
		writeError(w, r, http.StatusInternalServerError, exitErr.Tool+" failed", exitErr.Stderr)

	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "processing timed out", "")

	case errors.Is(err, context.Canceled):
		logger.Info().
			Str(log.FieldEvent, "request.canceled").
			Str(log.FieldOperation, op).
			Msg("client went away")
		writeError(w, r, statusClientClosedRequest, "request canceled", "")

	default:
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "request.failed").
			Str(log.FieldOperation, op).
			Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal error", "")
	}
}
