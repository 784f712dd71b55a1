package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/auth"
	"github.com/avolkovs/filekeeper/internal/server/config"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/objstore"
	"github.com/avolkovs/filekeeper/internal/server/repositories/accounts"
	"github.com/avolkovs/filekeeper/internal/server/repositories/files"
	"github.com/avolkovs/filekeeper/internal/server/repositories/folders"
	"github.com/avolkovs/filekeeper/internal/server/repositories/notifications"
	"github.com/avolkovs/filekeeper/internal/server/repositories/shares"
	"github.com/avolkovs/filekeeper/internal/server/services"
)

const testSecret = "handler-test-secret"

// stubRepoManager satisfies repomanager.RepositoryManager with whatever repo
// fakes a test plugs in; unused repos stay nil.
type stubRepoManager struct {
	accountsRepo      accounts.Repository
	filesRepo         files.Repository
	foldersRepo       folders.Repository
	sharesRepo        shares.Repository
	notificationsRepo notifications.Repository
}

func (m *stubRepoManager) RunMigrations(ctx context.Context) error { return nil }
func (m *stubRepoManager) Conn() *sql.DB                           { return nil }
func (m *stubRepoManager) Accounts(db dbx.DBTX) accounts.Repository {
	return m.accountsRepo
}
func (m *stubRepoManager) Files(db dbx.DBTX) files.Repository     { return m.filesRepo }
func (m *stubRepoManager) Folders(db dbx.DBTX) folders.Repository { return m.foldersRepo }
func (m *stubRepoManager) Shares(db dbx.DBTX) shares.Repository   { return m.sharesRepo }
func (m *stubRepoManager) Notifications(db dbx.DBTX) notifications.Repository {
	return m.notificationsRepo
}

type stubAccounts struct {
	accounts.Repository
	createFn     func(ctx context.Context, a *models.Account) (*models.Account, error)
	getByEmailFn func(ctx context.Context, email string) (*models.Account, error)
	bucketTaken  func(ctx context.Context, ident string) (bool, error)
}

func (s *stubAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	return s.createFn(ctx, a)
}
func (s *stubAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *stubAccounts) BucketIdentifierTaken(ctx context.Context, ident string) (bool, error) {
	return s.bucketTaken(ctx, ident)
}

type stubFiles struct {
	files.Repository
	byOwnerFn         func(ctx context.Context, ownerID string) ([]*models.FileRecord, error)
	findOwnedByNameFn func(ctx context.Context, ownerID, name string) (*models.FileRecord, error)
	getByIDFn         func(ctx context.Context, id int64) (*models.FileRecord, error)
	deleteByKeyFn     func(ctx context.Context, bucket, key string) error
}

func (s *stubFiles) ByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	return s.byOwnerFn(ctx, ownerID)
}
func (s *stubFiles) FindOwnedByName(ctx context.Context, ownerID, name string) (*models.FileRecord, error) {
	return s.findOwnedByNameFn(ctx, ownerID, name)
}
func (s *stubFiles) GetByID(ctx context.Context, id int64) (*models.FileRecord, error) {
	return s.getByIDFn(ctx, id)
}
func (s *stubFiles) DeleteByStorageKey(ctx context.Context, bucket, key string) error {
	return s.deleteByKeyFn(ctx, bucket, key)
}

type stubShares struct {
	shares.Repository
	createFn func(ctx context.Context, g *models.ShareGrant) error
	existsFn func(ctx context.Context, fileID int64, recipientID string) (bool, error)
}

func (s *stubShares) Create(ctx context.Context, g *models.ShareGrant) error {
	return s.createFn(ctx, g)
}
func (s *stubShares) Exists(ctx context.Context, fileID int64, recipientID string) (bool, error) {
	return s.existsFn(ctx, fileID, recipientID)
}

func newTestAPI(t *testing.T, m *stubRepoManager, store objstore.ObjectStore) http.Handler {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                   testSecret,
		AccessTokenValidityDuration: time.Minute,
		PresignValidityDuration:     time.Hour,
		QuotaBytes:                  1 << 30,
	}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	notifier := services.NewNotificationService(nil, m, nil, log)
	api := NewAPI(
		services.NewAccountService(nil, m, cfg),
		services.NewUploadService(nil, m, store, notifier, log),
		services.NewCatalogService(nil, m, store, notifier, cfg, log),
		services.NewSharingService(nil, m, store, notifier, cfg, log),
		services.NewFavoritesService(nil, m),
		notifier,
		nil,
		cfg,
		log,
	)
	return api.Router()
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func seedObject(t *testing.T, store objstore.ObjectStore, bucket, key string, content []byte) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.EnsureBucket(ctx, bucket))
	require.NoError(t, store.Put(ctx, bucket, key, bytes.NewReader(content), int64(len(content)), "text/plain", nil))
}

func TestObjects_StreamsBytes(t *testing.T) {
	store := objstore.NewMemoryStore()
	seedObject(t, store, "b1", "hello.txt", []byte("hello"))
	router := newTestAPI(t, &stubRepoManager{}, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files?bucket=b1&key=hello.txt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestObjects_ListsBucket(t *testing.T) {
	store := objstore.NewMemoryStore()
	seedObject(t, store, "b1", "a.txt", []byte("aa"))
	seedObject(t, store, "b1", "b.txt", []byte("bbb"))
	router := newTestAPI(t, &stubRepoManager{}, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files?bucket=b1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []objectEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, objectEntry{Name: "a.txt", Size: 2}, entries[0])
	assert.Equal(t, objectEntry{Name: "b.txt", Size: 3}, entries[1])
}

func TestObjects_ReadFailureIs404(t *testing.T) {
	router := newTestAPI(t, &stubRepoManager{}, objstore.NewMemoryStore())

	for _, target := range []string{
		"/files?bucket=missing&key=x",
		"/files?bucket=missing",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestObjects_MissingBucketIs400(t *testing.T) {
	router := newTestAPI(t, &stubRepoManager{}, objstore.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteObject(t *testing.T) {
	store := objstore.NewMemoryStore()
	seedObject(t, store, "b1", "a.txt", []byte("aa"))
	m := &stubRepoManager{
		filesRepo: &stubFiles{
			deleteByKeyFn: func(ctx context.Context, bucket, key string) error { return nil },
		},
	}
	router := newTestAPI(t, m, store)

	// missing params
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files?bucket=b1&key=a.txt", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// success
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files?bucket=b1&key=a.txt&userId=u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())

	// object already gone, storage delete fails
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files?bucket=b1&key=a.txt&userId=u1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAddUser_ConflictIs409(t *testing.T) {
	m := &stubRepoManager{
		accountsRepo: &stubAccounts{
			bucketTaken: func(ctx context.Context, ident string) (bool, error) { return false, nil },
			createFn: func(ctx context.Context, a *models.Account) (*models.Account, error) {
				return nil, common.ErrorAlreadyExists
			},
		},
	}
	router := newTestAPI(t, m, objstore.NewMemoryStore())

	body := `{"username":"alice","email":"alice@example.com","displayName":"Alice","password":"longenough"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/addUser", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddUser_InvalidPayloadIs400(t *testing.T) {
	router := newTestAPI(t, &stubRepoManager{}, objstore.NewMemoryStore())

	body := `{"username":"alice","email":"nope","displayName":"Alice","password":"longenough"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/addUser", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIRoutes_RequireToken(t *testing.T) {
	router := newTestAPI(t, &stubRepoManager{}, objstore.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyFiles_ScopedToTokenUser(t *testing.T) {
	m := &stubRepoManager{
		filesRepo: &stubFiles{
			byOwnerFn: func(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
				require.Equal(t, "u1", ownerID)
				return []*models.FileRecord{{
					ID: 1, OwnerID: "u1", OriginalName: "a.pdf", StoredName: "a.pdf",
					ByteSize: 10, FileExtension: "pdf", StorageKey: "a.pdf", StorageBucket: "b",
				}}, nil
			},
		},
	}
	router := newTestAPI(t, m, objstore.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a.pdf", got[0].Name)
	assert.Equal(t, "document", got[0].Kind)
}

func TestShare_DuplicateIsOKWithStatus(t *testing.T) {
	m := &stubRepoManager{
		accountsRepo: &stubAccounts{
			getByEmailFn: func(ctx context.Context, email string) (*models.Account, error) {
				return &models.Account{ID: "recipient"}, nil
			},
		},
		filesRepo: &stubFiles{
			findOwnedByNameFn: func(ctx context.Context, ownerID, name string) (*models.FileRecord, error) {
				return &models.FileRecord{ID: 1, OwnerID: ownerID}, nil
			},
		},
		sharesRepo: &stubShares{
			createFn: func(ctx context.Context, g *models.ShareGrant) error {
				return common.ErrorAlreadyShared
			},
		},
	}
	router := newTestAPI(t, m, objstore.NewMemoryStore())

	body := `{"fileName":"a.pdf","recipientEmail":"bob@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/share", strings.NewReader(body))
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alreadyShared"}`, rec.Body.String())
}

func TestDownloadLink_ForbiddenForStranger(t *testing.T) {
	m := &stubRepoManager{
		filesRepo: &stubFiles{
			getByIDFn: func(ctx context.Context, id int64) (*models.FileRecord, error) {
				return &models.FileRecord{ID: id, OwnerID: "owner", StorageBucket: "b", StorageKey: "k"}, nil
			},
		},
		sharesRepo: &stubShares{
			existsFn: func(ctx context.Context, fileID int64, recipientID string) (bool, error) {
				return false, nil
			},
		},
	}
	router := newTestAPI(t, m, objstore.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/files/1/link", nil)
	req.Header.Set("Authorization", bearerFor(t, "stranger"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownloadLink_OwnerGetsURL(t *testing.T) {
	m := &stubRepoManager{
		filesRepo: &stubFiles{
			getByIDFn: func(ctx context.Context, id int64) (*models.FileRecord, error) {
				return &models.FileRecord{
					ID: id, OwnerID: "owner", OriginalName: "report.pdf",
					StorageBucket: "b", StorageKey: "report.pdf",
				}, nil
			},
		},
	}
	router := newTestAPI(t, m, objstore.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/files/1/link", nil)
	req.Header.Set("Authorization", bearerFor(t, "owner"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["url"], "report.pdf")
	assert.Contains(t, resp["url"], "attachment")
}
