package repository

import (
	"context"

	"bookmarks-api/internal/domain"
)

// BookmarkRepository exposes persistence operations for bookmarks.
//
// Methods taking an owner id only touch rows owned by that user and report
// ErrNotFound for anything else.
type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *domain.Bookmark) error
	Get(ctx context.Context, id int64) (*domain.Bookmark, error)
	GetOwned(ctx context.Context, userID string, id int64) (*domain.Bookmark, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Bookmark, error)
	Update(ctx context.Context, userID string, id int64, patch domain.BookmarkPatch) (*domain.Bookmark, error)
	Delete(ctx context.Context, userID string, id int64) error
}
