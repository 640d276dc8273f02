package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Cyclone1070/fileview/internal/access"
)

type jsonErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, message string, hint string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonErrorResponse{
		Error: message,
		Hint:  hint,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func statusFor(kind access.FailureKind) int {
	switch kind {
	case access.KindDenied:
		return http.StatusForbidden
	case access.KindNotFound:
		return http.StatusNotFound
	case access.KindTypeMismatch, access.KindInvalid:
		return http.StatusBadRequest
	case access.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var failureMessages = map[access.FailureKind]string{
	access.KindDenied:       "Path not allowed",
	access.KindNotFound:     "Not found",
	access.KindTypeMismatch: "Operation not valid for this file type",
	access.KindConflict:     "Destination already exists",
	access.KindInvalid:      "Invalid request",
	access.KindIO:           "Internal filesystem error",
}

// writeFailure maps an engine error onto the error envelope. Denied and IO
// failures never carry path detail to the client; the full error is logged.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	log := loggerFrom(r.Context())

	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("operation timed out", "error", err)
		writeJSONError(w, http.StatusGatewayTimeout, "Operation timed out", "")
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Info("request cancelled", "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "Request cancelled", "")
		return
	}

	kind := access.KindOf(err)
	if errors.Is(err, access.ErrMutationsDisabled) {
		writeJSONError(w, http.StatusForbidden, "File operations are disabled", "")
		return
	}

	var hint string
	switch kind {
	case access.KindDenied:
		var pe *access.PathError
		if errors.As(err, &pe) {
			log.Debug("path denied", "op", pe.Op, "input", pe.Path)
		}
	case access.KindIO:
		log.Error("filesystem error", "error", err)
	default:
		var pe *access.PathError
		if errors.As(err, &pe) && pe.Cause != nil {
			hint = pe.Cause.Error()
		}
	}
	writeJSONError(w, statusFor(kind), failureMessages[kind], hint)
}
