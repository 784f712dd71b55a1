package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/server/models"
)

type shareRequest struct {
	FileName       string `json:"fileName"`
	RecipientEmail string `json:"recipientEmail"`
}

// handleShare serves POST /api/share. A repeated share of the same file to
// the same recipient is reported as a success with status "alreadyShared",
// not as an error.
func (a *API) handleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed body"})
		return
	}

	err := a.sharing.Share(r.Context(), userIDFrom(r.Context()), req.FileName, req.RecipientEmail)
	if errors.Is(err, common.ErrorAlreadyShared) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alreadyShared"})
		return
	}
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "shared"})
}

type revokeRequest struct {
	FileID      int64  `json:"fileId"`
	RecipientID string `json:"recipientId"`
}

// handleRevoke serves DELETE /api/share.
func (a *API) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed body"})
		return
	}

	if err := a.sharing.Revoke(r.Context(), userIDFrom(r.Context()), req.FileID, req.RecipientID); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

type sharedFileResponse struct {
	fileResponse
	SharedByID   string    `json:"sharedById"`
	SharedByName string    `json:"sharedByName"`
	SharedAt     time.Time `json:"sharedAt"`
}

// handleSharedWithMe serves GET /api/files/shared.
func (a *API) handleSharedWithMe(w http.ResponseWriter, r *http.Request) {
	list, err := a.sharing.SharedWithMe(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	out := make([]sharedFileResponse, 0, len(list))
	for _, sf := range list {
		out = append(out, toSharedFileResponse(sf))
	}
	writeJSON(w, http.StatusOK, out)
}

func toSharedFileResponse(sf *models.SharedFile) sharedFileResponse {
	return sharedFileResponse{
		fileResponse: toFileResponse(&sf.FileRecord),
		SharedByID:   sf.SharedByID,
		SharedByName: sf.SharedByName,
		SharedAt:     sf.SharedAt,
	}
}
