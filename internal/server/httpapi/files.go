package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkovs/filekeeper/internal/server/models"
)

type fileResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Kind      string `json:"kind"`
	FolderID  *int64 `json:"folderId"`
	Favorite  bool   `json:"favorite"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
}

func toFileResponse(f *models.FileRecord) fileResponse {
	return fileResponse{
		ID:        f.ID,
		Name:      f.DisplayName(),
		Size:      f.ByteSize,
		MimeType:  f.MimeType,
		Extension: f.FileExtension,
		Kind:      f.Kind().String(),
		FolderID:  f.FolderID,
		Favorite:  f.IsFavorite,
		Bucket:    f.StorageBucket,
		Key:       f.StorageKey,
	}
}

func toFileResponses(records []*models.FileRecord) []fileResponse {
	out := make([]fileResponse, 0, len(records))
	for _, f := range records {
		out = append(out, toFileResponse(f))
	}
	return out
}

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to disk.
const maxUploadMemory = 32 << 20

// handleUpload serves POST /api/upload. Multipart form: "file" is required,
// "folderId" optional. After a successful upload the owner's storage usage
// is checked off the request goroutine.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed multipart body"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file field is required"})
		return
	}
	defer file.Close()

	var folderID *int64
	if raw := r.FormValue("folderId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "folderId must be an integer"})
			return
		}
		folderID = &id
	}

	record, err := a.uploads.Upload(r.Context(), userID,
		file, header.Size, header.Filename, header.Header.Get("Content-Type"), folderID, nil)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	// the request context dies with the response; the usage check gets its own
	a.submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.catalog.CheckStorageUsage(ctx, userID); err != nil {
			a.log.Warn(ctx, "storage usage check failed", "user_id", userID, "error", err)
		}
	})

	writeJSON(w, http.StatusOK, toFileResponse(record))
}

// handleMyFiles serves GET /api/files, optionally scoped to a folder with
// ?folderId=N (or ?folderId=root for the explicit root).
func (a *API) handleMyFiles(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	raw := r.URL.Query().Get("folderId")
	if raw == "" {
		records, err := a.catalog.ByOwner(r.Context(), userID)
		if err != nil {
			a.writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFileResponses(records))
		return
	}

	var folderID *int64
	if raw != "root" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "folderId must be an integer or \"root\""})
			return
		}
		folderID = &id
	}

	records, err := a.catalog.ByFolder(r.Context(), userID, folderID)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(records))
}

// handleFavorites serves GET /api/files/favorites.
func (a *API) handleFavorites(w http.ResponseWriter, r *http.Request) {
	records, err := a.catalog.FavoritesOf(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(records))
}

// handleDownloadLink serves GET /api/files/{id}/link.
func (a *API) handleDownloadLink(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be an integer"})
		return
	}

	url, err := a.sharing.DownloadLink(r.Context(), fileID, userIDFrom(r.Context()))
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleDeleteFile serves DELETE /api/files/{id}.
func (a *API) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be an integer"})
		return
	}

	if err := a.catalog.DeleteFile(r.Context(), userIDFrom(r.Context()), fileID); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type setFavoriteRequest struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Favorite bool   `json:"favorite"`
	Size     int64  `json:"size"`
}

// handleSetFavorite serves POST /api/files/favorite.
func (a *API) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	var req setFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed body"})
		return
	}
	if req.Bucket == "" || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bucket and key are required"})
		return
	}

	if err := a.favorites.SetFavorite(r.Context(), userIDFrom(r.Context()), req.Bucket, req.Key, req.Favorite, req.Size); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": req.Favorite})
}

type moveRequest struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	FolderID *int64 `json:"folderId"`
}

// handleMoveToFolder serves POST /api/files/move. A nil folderId moves the
// file back to the root.
func (a *API) handleMoveToFolder(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed body"})
		return
	}
	if req.Bucket == "" || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bucket and key are required"})
		return
	}

	if err := a.catalog.MoveToFolder(r.Context(), userIDFrom(r.Context()), req.Bucket, req.Key, req.FolderID); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

type folderResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FileCount int    `json:"fileCount"`
}

// handleFolders serves GET /api/folders.
func (a *API) handleFolders(w http.ResponseWriter, r *http.Request) {
	list, err := a.catalog.FoldersOf(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	out := make([]folderResponse, 0, len(list))
	for _, f := range list {
		out = append(out, folderResponse{ID: f.ID, Name: f.Name, FileCount: f.FileCount})
	}
	writeJSON(w, http.StatusOK, out)
}

type createFolderRequest struct {
	Name string `json:"name"`
}

// handleCreateFolder serves POST /api/folders.
func (a *API) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed body"})
		return
	}

	folder, err := a.catalog.CreateFolder(r.Context(), userIDFrom(r.Context()), req.Name)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, folderResponse{ID: folder.ID, Name: folder.Name})
}

// handleDeleteFolder serves DELETE /api/folders/{id}. Member files move back
// to the root, never to the trash.
func (a *API) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	folderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be an integer"})
		return
	}

	if err := a.catalog.DeleteFolder(r.Context(), userIDFrom(r.Context()), folderID); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
