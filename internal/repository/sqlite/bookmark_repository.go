package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookmarks-api/internal/domain"
	"bookmarks-api/internal/repository"
)

const bookmarkColumns = `id, user_id, title, link, description, created_at, updated_at`

type BookmarkRepository struct {
	db *sql.DB
}

func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Create(ctx context.Context, bookmark *domain.Bookmark) error {
	now := time.Now().UTC()
	bookmark.CreatedAt = now
	bookmark.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO bookmarks (user_id, title, link, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		bookmark.UserID,
		bookmark.Title,
		bookmark.Link,
		nullString(bookmark.Description),
		bookmark.CreatedAt,
		bookmark.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("bookmark last insert id: %w", err)
	}
	bookmark.ID = id
	return nil
}

func (r *BookmarkRepository) Get(ctx context.Context, id int64) (*domain.Bookmark, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id)
	return scanBookmark(row)
}

func (r *BookmarkRepository) GetOwned(ctx context.Context, userID string, id int64) (*domain.Bookmark, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+bookmarkColumns+`
FROM bookmarks
WHERE user_id = ? AND id = ?`,
		userID, id,
	)
	return scanBookmark(row)
}

func (r *BookmarkRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+bookmarkColumns+`
FROM bookmarks
WHERE user_id = ?
ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]domain.Bookmark, 0)
	for rows.Next() {
		bookmark, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, *bookmark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Update applies the non-nil patch fields to a bookmark owned by userID.
// The owner is part of the WHERE clause, so a row that changed hands or
// vanished since it was read is reported as ErrNotFound.
func (r *BookmarkRepository) Update(ctx context.Context, userID string, id int64, patch domain.BookmarkPatch) (*domain.Bookmark, error) {
	if patch.Empty() {
		return r.GetOwned(ctx, userID, id)
	}

	set := newSetClause()
	set.add("title", patch.Title)
	set.add("link", patch.Link)
	set.add("description", patch.Description)
	set.add("updated_at", time.Now().UTC())

	query, args := set.build("bookmarks", "id = ? AND user_id = ?", id, userID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update bookmark: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, fmt.Errorf("update bookmark %d: %w", id, err)
	}
	return r.GetOwned(ctx, userID, id)
}

func (r *BookmarkRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return fmt.Errorf("delete bookmark %d: %w", id, err)
	}
	return nil
}

func scanBookmark(row rowScanner) (*domain.Bookmark, error) {
	var (
		bookmark    domain.Bookmark
		description sql.NullString
	)
	if err := row.Scan(
		&bookmark.ID,
		&bookmark.UserID,
		&bookmark.Title,
		&bookmark.Link,
		&description,
		&bookmark.CreatedAt,
		&bookmark.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bookmark: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan bookmark: %w", err)
	}
	bookmark.Description = stringPtr(description)
	return &bookmark, nil
}

var _ repository.BookmarkRepository = (*BookmarkRepository)(nil)
