// Package httpapi exposes the server's HTTP surface: the raw bucket/key
// object endpoints, account registration and login, and the authenticated
// /api routes over the service layer.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/config"
	"github.com/avolkovs/filekeeper/internal/server/services"
	"github.com/avolkovs/filekeeper/internal/taskx"
)

// API bundles the services behind the HTTP handlers.
type API struct {
	accounts      *services.AccountService
	uploads       *services.UploadService
	catalog       *services.CatalogService
	sharing       *services.SharingService
	favorites     *services.FavoritesService
	notifications *services.NotificationService
	pool          *taskx.Pool
	jwtSecret     []byte
	log           logging.Logger
}

// NewAPI constructs the API. pool may be nil; background work then runs
// inline.
func NewAPI(
	accounts *services.AccountService,
	uploads *services.UploadService,
	catalog *services.CatalogService,
	sharing *services.SharingService,
	favorites *services.FavoritesService,
	notifications *services.NotificationService,
	pool *taskx.Pool,
	cfg *config.Config,
	log logging.Logger,
) *API {
	return &API{
		accounts:      accounts,
		uploads:       uploads,
		catalog:       catalog,
		sharing:       sharing,
		favorites:     favorites,
		notifications: notifications,
		pool:          pool,
		jwtSecret:     []byte(cfg.SecretKey),
		log:           log,
	}
}

// Router builds the route tree.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(a.requestLogger)
	r.Use(chimw.Recoverer)

	// raw object surface, unauthenticated by contract
	r.Get("/files", a.handleObjects)
	r.Delete("/files", a.handleDeleteObject)

	r.Post("/api/addUser", a.handleAddUser)
	r.Post("/api/login", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Post("/api/upload", a.handleUpload)
		r.Get("/api/files", a.handleMyFiles)
		r.Get("/api/files/favorites", a.handleFavorites)
		r.Get("/api/files/shared", a.handleSharedWithMe)
		r.Get("/api/files/{id}/link", a.handleDownloadLink)
		r.Delete("/api/files/{id}", a.handleDeleteFile)
		r.Post("/api/files/favorite", a.handleSetFavorite)
		r.Post("/api/files/move", a.handleMoveToFolder)

		r.Post("/api/share", a.handleShare)
		r.Delete("/api/share", a.handleRevoke)

		r.Get("/api/folders", a.handleFolders)
		r.Post("/api/folders", a.handleCreateFolder)
		r.Delete("/api/folders/{id}", a.handleDeleteFolder)

		r.Get("/api/notifications", a.handleNotifications)
		r.Post("/api/notifications/{id}/read", a.handleMarkRead)
		r.Post("/api/notifications/read-all", a.handleMarkAllRead)
		r.Delete("/api/notifications/{id}", a.handleDeleteNotification)
		r.Delete("/api/notifications/read", a.handleDeleteAllRead)
	})

	return r
}

// submit runs task on the pool when one is configured, inline otherwise.
func (a *API) submit(task func()) {
	if a.pool == nil || !a.pool.Submit(task) {
		task()
	}
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.log.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
