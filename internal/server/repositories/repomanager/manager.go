// Package repomanager hands out repositories bound to a database handle and
// owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/server/repositories/accounts"
	"github.com/avolkovs/filekeeper/internal/server/repositories/files"
	"github.com/avolkovs/filekeeper/internal/server/repositories/folders"
	"github.com/avolkovs/filekeeper/internal/server/repositories/notifications"
	"github.com/avolkovs/filekeeper/internal/server/repositories/shares"
)

// RepositoryManager produces repositories bound to the given DBTX, which may
// be the root *sql.DB or a transaction handle from dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Accounts(db dbx.DBTX) accounts.Repository
	Files(db dbx.DBTX) files.Repository
	Folders(db dbx.DBTX) folders.Repository
	Shares(db dbx.DBTX) shares.Repository
	Notifications(db dbx.DBTX) notifications.Repository
}
