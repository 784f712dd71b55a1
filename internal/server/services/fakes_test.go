package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/objstore"
	"github.com/avolkovs/filekeeper/internal/server/repositories/accounts"
	"github.com/avolkovs/filekeeper/internal/server/repositories/files"
	"github.com/avolkovs/filekeeper/internal/server/repositories/folders"
	"github.com/avolkovs/filekeeper/internal/server/repositories/notifications"
	"github.com/avolkovs/filekeeper/internal/server/repositories/shares"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeRepoManager hands out the configured fakes regardless of the database
// handle it receives.
type fakeRepoManager struct {
	conn          *sql.DB
	accounts      accounts.Repository
	files         files.Repository
	folders       folders.Repository
	shares        shares.Repository
	notifications notifications.Repository
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context) error { return nil }
func (m *fakeRepoManager) Conn() *sql.DB                           { return m.conn }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository {
	return m.accounts
}
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository       { return m.files }
func (m *fakeRepoManager) Folders(db dbx.DBTX) folders.Repository   { return m.folders }
func (m *fakeRepoManager) Shares(db dbx.DBTX) shares.Repository     { return m.shares }
func (m *fakeRepoManager) Notifications(db dbx.DBTX) notifications.Repository {
	return m.notifications
}

// The repo fakes embed their interface so only the methods a test configures
// need an implementation; calling an unconfigured one panics the test.

type fakeAccountsRepo struct {
	accounts.Repository
	createFn        func(ctx context.Context, a *models.Account) (*models.Account, error)
	getByIDFn       func(ctx context.Context, id string) (*models.Account, error)
	getByEmailFn    func(ctx context.Context, email string) (*models.Account, error)
	getByUsernameFn func(ctx context.Context, username string) (*models.Account, error)
	bucketTakenFn   func(ctx context.Context, ident string) (bool, error)
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	return f.createFn(ctx, a)
}
func (f *fakeAccountsRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeAccountsRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return f.getByEmailFn(ctx, email)
}
func (f *fakeAccountsRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return f.getByUsernameFn(ctx, username)
}
func (f *fakeAccountsRepo) BucketIdentifierTaken(ctx context.Context, ident string) (bool, error) {
	return f.bucketTakenFn(ctx, ident)
}

type fakeFilesRepo struct {
	files.Repository
	insertFn          func(ctx context.Context, r *models.FileRecord) (*models.FileRecord, error)
	getByIDFn         func(ctx context.Context, id int64) (*models.FileRecord, error)
	findOwnedByNameFn func(ctx context.Context, ownerID, name string) (*models.FileRecord, error)
	byOwnerFn         func(ctx context.Context, ownerID string) ([]*models.FileRecord, error)
	clearFolderFn     func(ctx context.Context, folderID int64) error
	setFavoriteFn     func(ctx context.Context, ownerID, bucket, key string, favorite bool, size int64) error
	sumSizeFn         func(ctx context.Context, ownerID string) (int64, error)
	deleteFn          func(ctx context.Context, id int64) error
	assignFolderFn    func(ctx context.Context, ownerID, bucket, key string, folderID *int64) error
}

func (f *fakeFilesRepo) Insert(ctx context.Context, r *models.FileRecord) (*models.FileRecord, error) {
	return f.insertFn(ctx, r)
}
func (f *fakeFilesRepo) GetByID(ctx context.Context, id int64) (*models.FileRecord, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeFilesRepo) FindOwnedByName(ctx context.Context, ownerID, name string) (*models.FileRecord, error) {
	return f.findOwnedByNameFn(ctx, ownerID, name)
}
func (f *fakeFilesRepo) ByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	return f.byOwnerFn(ctx, ownerID)
}
func (f *fakeFilesRepo) ClearFolder(ctx context.Context, folderID int64) error {
	return f.clearFolderFn(ctx, folderID)
}
func (f *fakeFilesRepo) SetFavorite(ctx context.Context, ownerID, bucket, key string, favorite bool, size int64) error {
	return f.setFavoriteFn(ctx, ownerID, bucket, key, favorite, size)
}
func (f *fakeFilesRepo) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	return f.sumSizeFn(ctx, ownerID)
}
func (f *fakeFilesRepo) Delete(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}
func (f *fakeFilesRepo) AssignFolder(ctx context.Context, ownerID, bucket, key string, folderID *int64) error {
	return f.assignFolderFn(ctx, ownerID, bucket, key, folderID)
}

type fakeFoldersRepo struct {
	folders.Repository
	createFn  func(ctx context.Context, f *models.Folder) (*models.Folder, error)
	getByIDFn func(ctx context.Context, ownerID string, id int64) (*models.Folder, error)
	deleteFn  func(ctx context.Context, ownerID string, id int64) error
}

func (f *fakeFoldersRepo) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	return f.createFn(ctx, folder)
}
func (f *fakeFoldersRepo) GetByID(ctx context.Context, ownerID string, id int64) (*models.Folder, error) {
	return f.getByIDFn(ctx, ownerID, id)
}
func (f *fakeFoldersRepo) Delete(ctx context.Context, ownerID string, id int64) error {
	return f.deleteFn(ctx, ownerID, id)
}

type fakeSharesRepo struct {
	shares.Repository
	createFn func(ctx context.Context, g *models.ShareGrant) error
	existsFn func(ctx context.Context, fileID int64, recipientID string) (bool, error)
	revokeFn func(ctx context.Context, fileID int64, recipientID string) error
}

func (f *fakeSharesRepo) Create(ctx context.Context, g *models.ShareGrant) error {
	return f.createFn(ctx, g)
}
func (f *fakeSharesRepo) Exists(ctx context.Context, fileID int64, recipientID string) (bool, error) {
	return f.existsFn(ctx, fileID, recipientID)
}
func (f *fakeSharesRepo) Revoke(ctx context.Context, fileID int64, recipientID string) error {
	return f.revokeFn(ctx, fileID, recipientID)
}

type fakeNotificationsRepo struct {
	notifications.Repository
	createFn          func(ctx context.Context, n *models.Notification) (int64, error)
	activeWithTitleFn func(ctx context.Context, userID, title string) (bool, error)
}

func (f *fakeNotificationsRepo) Create(ctx context.Context, n *models.Notification) (int64, error) {
	return f.createFn(ctx, n)
}
func (f *fakeNotificationsRepo) ActiveWithTitle(ctx context.Context, userID, title string) (bool, error) {
	return f.activeWithTitleFn(ctx, userID, title)
}

// collectNotifications returns a fake that appends every created
// notification to the returned slice.
func collectNotifications(sink *[]*models.Notification) *fakeNotificationsRepo {
	return &fakeNotificationsRepo{
		createFn: func(ctx context.Context, n *models.Notification) (int64, error) {
			*sink = append(*sink, n)
			return int64(len(*sink)), nil
		},
	}
}

// stubStore overrides selected ObjectStore methods and delegates the rest to
// an in-memory store.
type stubStore struct {
	*objstore.MemoryStore
	putFn     func(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, progress objstore.ProgressFunc) error
	deleteFn  func(ctx context.Context, bucket, key string) error
	presignFn func(ctx context.Context, bucket, key string, expiry time.Duration, contentDisposition string) (string, error)
}

func newStubStore() *stubStore {
	return &stubStore{MemoryStore: objstore.NewMemoryStore()}
}

func (s *stubStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, progress objstore.ProgressFunc) error {
	if s.putFn != nil {
		return s.putFn(ctx, bucket, key, r, size, contentType, progress)
	}
	return s.MemoryStore.Put(ctx, bucket, key, r, size, contentType, progress)
}

func (s *stubStore) Delete(ctx context.Context, bucket, key string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, bucket, key)
	}
	return s.MemoryStore.Delete(ctx, bucket, key)
}

func (s *stubStore) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration, contentDisposition string) (string, error) {
	if s.presignFn != nil {
		return s.presignFn(ctx, bucket, key, expiry, contentDisposition)
	}
	return s.MemoryStore.PresignGet(ctx, bucket, key, expiry, contentDisposition)
}

func mustSeedObject(t *testing.T, store objstore.ObjectStore, bucket, key string, content []byte) {
	t.Helper()
	ctx := context.Background()
	if err := store.EnsureBucket(ctx, bucket); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	if err := store.Put(ctx, bucket, key, bytes.NewReader(content), int64(len(content)), "application/octet-stream", nil); err != nil {
		t.Fatalf("seed object: %v", err)
	}
}
