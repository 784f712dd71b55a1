package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkovs/filekeeper/internal/server/models"
)

type notificationResponse struct {
	ID        int64      `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ActionRef *string    `json:"actionRef"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func toNotificationResponse(n *models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		ActionRef: n.ActionRef,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		ExpiresAt: n.ExpiresAt,
	}
}

// handleNotifications serves GET /api/notifications: active rows only,
// unread first, newest first.
func (a *API) handleNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := a.notifications.ListActive(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	out := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMarkRead serves POST /api/notifications/{id}/read. A foreign id has
// no effect and still reports ok; there is nothing to leak.
func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be an integer"})
		return
	}
	if err := a.notifications.MarkRead(r.Context(), id, userIDFrom(r.Context())); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMarkAllRead serves POST /api/notifications/read-all.
func (a *API) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := a.notifications.MarkAllRead(r.Context(), userIDFrom(r.Context())); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteNotification serves DELETE /api/notifications/{id}.
func (a *API) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be an integer"})
		return
	}
	if err := a.notifications.Delete(r.Context(), id, userIDFrom(r.Context())); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteAllRead serves DELETE /api/notifications/read.
func (a *API) handleDeleteAllRead(w http.ResponseWriter, r *http.Request) {
	if err := a.notifications.DeleteAllRead(r.Context(), userIDFrom(r.Context())); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
