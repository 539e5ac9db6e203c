package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/store"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeStoreError maps the store's error taxonomy onto HTTP statuses.
// Business-rule rejections are 422 (the request was well-formed, the
// economy said no); state-machine and contention failures are 409.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, store.ErrInsufficientPoints),
		errors.Is(err, store.ErrRewardInactive),
		errors.Is(err, store.ErrWeeklyLimitExceeded):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidAmount),
		errors.Is(err, store.ErrInvalidReason):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		logger.Error(action, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to " + action})
	}
}
