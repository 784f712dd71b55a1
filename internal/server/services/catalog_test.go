package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/server/config"
	"github.com/avolkovs/filekeeper/internal/server/models"
)

func catalogFixture(t *testing.T, m *fakeRepoManager, store *stubStore, sink *[]*models.Notification) *CatalogService {
	t.Helper()
	if m.notifications == nil {
		m.notifications = collectNotifications(sink)
	}
	cfg := &config.Config{QuotaBytes: 1000}
	notifier := NewNotificationService(nil, m, nil, testLogger())
	return NewCatalogService(nil, m, store, notifier, cfg, testLogger())
}

func TestCreateFolder_NameGrammar(t *testing.T) {
	m := &fakeRepoManager{
		folders: &fakeFoldersRepo{
			createFn: func(ctx context.Context, f *models.Folder) (*models.Folder, error) {
				f.ID = 1
				return f, nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, newStubStore(), &sink)

	for _, bad := range []string{"a", "", "tax/2024", "päpers", strings.Repeat("a", 51)} {
		if _, err := svc.CreateFolder(context.Background(), "u1", bad); !errors.Is(err, common.ErrorValidation) {
			t.Fatalf("name %q: want ErrorValidation, got %v", bad, err)
		}
	}

	got, err := svc.CreateFolder(context.Background(), "u1", "Tax Docs_2024-q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("unexpected folder: %+v", got)
	}
}

func TestDeleteFolder_ReassignsBeforeDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var order []string
	m := &fakeRepoManager{
		folders: &fakeFoldersRepo{
			getByIDFn: func(ctx context.Context, ownerID string, id int64) (*models.Folder, error) {
				return &models.Folder{ID: id, OwnerID: ownerID, Name: "Photos"}, nil
			},
			deleteFn: func(ctx context.Context, ownerID string, id int64) error {
				order = append(order, "delete-folder")
				return nil
			},
		},
		files: &fakeFilesRepo{
			clearFolderFn: func(ctx context.Context, folderID int64) error {
				order = append(order, "clear-files")
				return nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, newStubStore(), &sink)
	svc.db = db

	if err := svc.DeleteFolder(context.Background(), "u1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "clear-files" || order[1] != "delete-folder" {
		t.Fatalf("files must be reassigned before the folder goes: %v", order)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteFolder_MissingFolderRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	m := &fakeRepoManager{
		folders: &fakeFoldersRepo{
			getByIDFn: func(ctx context.Context, ownerID string, id int64) (*models.Folder, error) {
				return nil, common.ErrorNotFound
			},
		},
		files: &fakeFilesRepo{
			clearFolderFn: func(ctx context.Context, folderID int64) error {
				t.Fatal("files must not be touched when the folder is absent")
				return nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, newStubStore(), &sink)
	svc.db = db

	if err := svc.DeleteFolder(context.Background(), "u1", 3); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMoveToFolder_ForeignFolderIsAbsent(t *testing.T) {
	m := &fakeRepoManager{
		folders: &fakeFoldersRepo{
			getByIDFn: func(ctx context.Context, ownerID string, id int64) (*models.Folder, error) {
				return nil, common.ErrorNotFound
			},
		},
		files: &fakeFilesRepo{
			assignFolderFn: func(ctx context.Context, ownerID, bucket, key string, folderID *int64) error {
				t.Fatal("assignment must not run for a foreign folder")
				return nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, newStubStore(), &sink)

	folderID := int64(7)
	err := svc.MoveToFolder(context.Background(), "u1", "b", "k", &folderID)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestMoveToFolder_RootSkipsFolderCheck(t *testing.T) {
	assigned := false
	m := &fakeRepoManager{
		files: &fakeFilesRepo{
			assignFolderFn: func(ctx context.Context, ownerID, bucket, key string, folderID *int64) error {
				if folderID != nil {
					t.Fatalf("root move must pass nil, got %v", *folderID)
				}
				assigned = true
				return nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, newStubStore(), &sink)

	if err := svc.MoveToFolder(context.Background(), "u1", "b", "k", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !assigned {
		t.Fatal("assignment did not run")
	}
}

func TestDeleteFile_ObjectGoesFirst(t *testing.T) {
	store := newStubStore()
	mustSeedObject(t, store, "alice", "a.txt", []byte("x"))

	rowDeleted := false
	m := &fakeRepoManager{
		files: &fakeFilesRepo{
			getByIDFn: func(ctx context.Context, id int64) (*models.FileRecord, error) {
				return &models.FileRecord{ID: id, OwnerID: "u1", StorageBucket: "alice", StorageKey: "a.txt"}, nil
			},
			deleteFn: func(ctx context.Context, id int64) error {
				rowDeleted = true
				return nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, store, &sink)

	if err := svc.DeleteFile(context.Background(), "u1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rowDeleted {
		t.Fatal("metadata row not deleted")
	}
	if _, err := store.Get(context.Background(), "alice", "a.txt"); err == nil {
		t.Fatal("object still present")
	}
}

func TestDeleteFile_StorageFailureKeepsRow(t *testing.T) {
	store := newStubStore()
	store.deleteFn = func(ctx context.Context, bucket, key string) error {
		return errors.New("endpoint unreachable")
	}
	m := &fakeRepoManager{
		files: &fakeFilesRepo{
			getByIDFn: func(ctx context.Context, id int64) (*models.FileRecord, error) {
				return &models.FileRecord{ID: id, OwnerID: "u1", StorageBucket: "alice", StorageKey: "a.txt"}, nil
			},
			deleteFn: func(ctx context.Context, id int64) error {
				t.Fatal("row must survive a failed object delete")
				return nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, store, &sink)

	err := svc.DeleteFile(context.Background(), "u1", 1)
	if !errors.Is(err, common.ErrorStorageFailure) {
		t.Fatalf("want ErrorStorageFailure, got %v", err)
	}
}

func TestDeleteFile_RowFailureReportsDanglingRecord(t *testing.T) {
	store := newStubStore()
	mustSeedObject(t, store, "alice", "a.txt", []byte("x"))

	m := &fakeRepoManager{
		files: &fakeFilesRepo{
			getByIDFn: func(ctx context.Context, id int64) (*models.FileRecord, error) {
				return &models.FileRecord{ID: id, OwnerID: "u1", StorageBucket: "alice", StorageKey: "a.txt"}, nil
			},
			deleteFn: func(ctx context.Context, id int64) error {
				return errors.New("db down")
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, store, &sink)

	err := svc.DeleteFile(context.Background(), "u1", 1)
	var pf *common.PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("want PartialFailureError, got %v", err)
	}
	if !pf.RecordDangles {
		t.Fatal("row survived its object; RecordDangles must be set")
	}
	if pf.Orphaned() {
		t.Fatal("the object is gone, not orphaned")
	}
	if _, err := store.Get(context.Background(), "alice", "a.txt"); err == nil {
		t.Fatal("object still present")
	}
}

func TestDeleteFile_NotOwner(t *testing.T) {
	m := &fakeRepoManager{
		files: &fakeFilesRepo{
			getByIDFn: func(ctx context.Context, id int64) (*models.FileRecord, error) {
				return &models.FileRecord{ID: id, OwnerID: "somebody", StorageBucket: "b", StorageKey: "k"}, nil
			},
		},
	}
	var sink []*models.Notification
	svc := catalogFixture(t, m, newStubStore(), &sink)

	if err := svc.DeleteFile(context.Background(), "u1", 1); !errors.Is(err, common.ErrorAccessDenied) {
		t.Fatalf("want ErrorAccessDenied, got %v", err)
	}
}

func TestCheckStorageUsage_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		used     int64
		active   bool
		wantKind models.NotificationKind
		want     int
	}{
		{name: "below warn", used: 500, want: 0},
		{name: "warn level", used: 850, wantKind: models.NotificationWarning, want: 1},
		{name: "full level", used: 970, wantKind: models.NotificationDanger, want: 1},
		{name: "deduplicated", used: 970, active: true, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeRepoManager{
				files: &fakeFilesRepo{
					sumSizeFn: func(ctx context.Context, ownerID string) (int64, error) {
						return tt.used, nil
					},
				},
			}
			var sink []*models.Notification
			repo := collectNotifications(&sink)
			repo.activeWithTitleFn = func(ctx context.Context, userID, title string) (bool, error) {
				return tt.active, nil
			}
			m.notifications = repo
			svc := catalogFixture(t, m, newStubStore(), &sink)

			if err := svc.CheckStorageUsage(context.Background(), "u1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sink) != tt.want {
				t.Fatalf("want %d notifications, got %d", tt.want, len(sink))
			}
			if tt.want == 1 {
				n := sink[0]
				if n.Kind != tt.wantKind {
					t.Fatalf("want kind %s, got %s", tt.wantKind, n.Kind)
				}
				if n.ExpiresAt == nil {
					t.Fatal("threshold notifications must expire")
				}
			}
		})
	}
}
