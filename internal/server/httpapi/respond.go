package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avolkovs/filekeeper/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses. Raw error
// text from lower layers never reaches the client; the sentinel decides the
// message.
func (a *API) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var pf *common.PartialFailureError
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorSelfShare):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, common.ErrorAccessDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "already exists"})
	case errors.Is(err, common.ErrorGuestCreation):
		a.log.Error(ctx, "guest account creation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not create recipient account"})
	case errors.As(err, &pf):
		a.log.Error(ctx, "partial failure", "bucket", pf.Bucket, "key", pf.Key, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "upload partially failed; the file was not saved"})
	case errors.Is(err, common.ErrorStorageFailure):
		a.log.Error(ctx, "storage failure", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage unavailable"})
	default:
		a.log.Error(ctx, "internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
