package domain

import "time"

// Bookmark is a saved link owned by exactly one user.
type Bookmark struct {
	ID          int64
	UserID      string
	Title       string
	Link        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBookmark holds the fields supplied when creating a bookmark.
type NewBookmark struct {
	Title       string
	Link        string
	Description *string
}

// BookmarkPatch carries a partial bookmark edit. Nil fields are left untouched.
type BookmarkPatch struct {
	Title       *string
	Link        *string
	Description *string
}

func (p BookmarkPatch) Empty() bool {
	return p.Title == nil && p.Link == nil && p.Description == nil
}
