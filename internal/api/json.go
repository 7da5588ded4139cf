package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/folio/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind" validate:"required"`
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errResponse{Error: msg, Kind: kind})
}

// writeServiceError maps a postservice or auth error to a status code and message.
// Internal failures are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op, slug string, err error) {
	kind := apperr.Kind(err)
	switch kind {
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error(), kind)
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, "Post not found", kind)
	case apperr.KindConflict:
		writeError(w, http.StatusConflict, "Post with this slug already exists", kind)
	case apperr.KindStale:
		writeError(w, http.StatusPreconditionFailed, "Post was modified since it was read", kind)
	case apperr.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, unauthorizedMessage, kind)
	default:
		logger.Error(op+" failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error", apperr.KindInternal)
	}
}

// decodeBody reads a JSON request body capped at maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", apperr.KindValidation)
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON body", apperr.KindValidation)
		}
		return err
	}
	return nil
}
