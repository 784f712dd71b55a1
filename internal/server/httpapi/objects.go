package httpapi

import (
	"io"
	"net/http"
)

type objectEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// handleObjects serves GET /files. With bucket and key it streams the object
// bytes; with bucket alone it returns the flattened listing. Any read
// failure is a 404: the raw surface does not distinguish missing buckets,
// missing keys, and backend trouble.
func (a *API) handleObjects(w http.ResponseWriter, r *http.Request) {
	bucket := r.URL.Query().Get("bucket")
	key := r.URL.Query().Get("key")
	if bucket == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bucket is required"})
		return
	}

	if key == "" {
		infos, err := a.catalog.ListObjects(r.Context(), bucket)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
			return
		}
		entries := make([]objectEntry, 0, len(infos))
		for _, info := range infos {
			entries = append(entries, objectEntry{Name: info.Key, Size: info.Size})
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	rc, err := a.catalog.GetObject(r.Context(), bucket, key)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		a.log.Error(r.Context(), "object stream interrupted", "bucket", bucket, "key", key, "error", err)
	}
}

// handleDeleteObject serves DELETE /files?bucket=B&key=K&userId=U.
// userId is a required parameter of the raw surface's contract but carries
// no authorization semantics; the delete is gated on bucket and key alone.
func (a *API) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bucket, key, userID := q.Get("bucket"), q.Get("key"), q.Get("userId")
	if bucket == "" || key == "" || userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bucket, key, and userId are required"})
		return
	}

	if err := a.catalog.DeleteObject(r.Context(), bucket, key); err != nil {
		a.log.Error(r.Context(), "object delete failed", "bucket", bucket, "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "delete failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
