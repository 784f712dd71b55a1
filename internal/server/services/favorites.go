package services

import (
	"context"
	"database/sql"

	"github.com/avolkovs/filekeeper/internal/server/repositories/repomanager"
)

// FavoritesService owns the favorite mark on file records.
//
// Callers are expected to flip their local view optimistically and revert it
// only when SetFavorite returns an error; the service itself performs a
// single synchronous state transition per call.
type FavoritesService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewFavoritesService constructs a FavoritesService.
func NewFavoritesService(db *sql.DB, m repomanager.RepositoryManager) *FavoritesService {
	return &FavoritesService{db: db, repomanager: m}
}

// SetFavorite upserts the favorite mark for (bucket, key). Favoriting an
// object the index has never seen creates a minimal row; repeating a call is
// an idempotent success. A row owned by another user is reported as missing
// and left untouched.
func (s *FavoritesService) SetFavorite(ctx context.Context, userID, bucket, key string, favorite bool, size int64) error {
	return s.repomanager.Files(s.db).SetFavorite(ctx, userID, bucket, key, favorite, size)
}
