package models

import (
	"path/filepath"
	"strings"
	"time"
)

// FileRecord is the metadata row describing one stored object. In steady
// state a record exists iff the object exists at (StorageBucket, StorageKey);
// transient windows during failed uploads are reconciled by the upload
// coordinator.
type FileRecord struct {
	// ID is assigned by the metadata store on insert and never changes.
	ID      int64
	OwnerID string
	// FolderID is nil for files living at the root.
	FolderID *int64
	// StoredName is the sanitized name used to derive the storage key.
	StoredName string
	// OriginalName is the name the client declared at upload time.
	OriginalName  string
	ByteSize      int64
	MimeType      string
	FileExtension string
	// StorageKey is unique within StorageBucket.
	StorageKey    string
	StorageBucket string
	IsFavorite    bool
}

// DisplayName returns the name presented to humans: the original name when
// known, otherwise the stored one.
func (f *FileRecord) DisplayName() string {
	if f.OriginalName != "" {
		return f.OriginalName
	}
	return f.StoredName
}

// Kind classifies the record by its file extension.
func (f *FileRecord) Kind() MediaKind {
	return ClassifyExtension(f.FileExtension)
}

// SharedFile is a FileRecord enriched with the identity of the account that
// granted access. Returned records keep the owner's bucket and key so that
// download-link generation works for the grantee.
type SharedFile struct {
	FileRecord
	SharedByID   string
	SharedByName string
	SharedAt     time.Time
}

// Folder groups files belonging to one owner. FileCount is derived at query
// time and not persisted.
type Folder struct {
	ID        int64
	OwnerID   string
	Name      string
	FileCount int
}

// ShareGrant records that the owner of a file granted read access to a
// recipient. At most one grant exists per (FileID, RecipientID); grants never
// expire, only the presigned links built from them do.
type ShareGrant struct {
	FileID      int64
	OwnerID     string
	RecipientID string
	CreatedAt   time.Time
}

// DeriveStorageKey maps a declared file name onto an object key. Whitespace
// collapses to underscores; repeated uploads of the same name derive the same
// key and overwrite (last write wins, by policy).
func DeriveStorageKey(declaredName string) string {
	return strings.Join(strings.Fields(declaredName), "_")
}

// ExtensionOf returns the lowercase extension of name without the leading
// dot, or "" when there is none.
func ExtensionOf(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
