package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookmarks-api/internal/domain"
	"bookmarks-api/internal/repository"
)

// BookmarkService exposes bookmark operations scoped to a calling user.
type BookmarkService interface {
	List(ctx context.Context, callerID string) ([]domain.Bookmark, error)
	Get(ctx context.Context, callerID string, id int64) (*domain.Bookmark, error)
	Create(ctx context.Context, callerID string, input domain.NewBookmark) (*domain.Bookmark, error)
	Edit(ctx context.Context, callerID string, id int64, patch domain.BookmarkPatch) (*domain.Bookmark, error)
	Delete(ctx context.Context, callerID string, id int64) error
}

type bookmarkService struct {
	bookmarks repository.BookmarkRepository
}

func NewBookmarkService(bookmarks repository.BookmarkRepository) BookmarkService {
	return &bookmarkService{bookmarks: bookmarks}
}

func (s *bookmarkService) List(ctx context.Context, callerID string) ([]domain.Bookmark, error) {
	bookmarks, err := s.bookmarks.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	return bookmarks, nil
}

// Get returns nil without an error when the bookmark is absent or not owned by the caller.
func (s *bookmarkService) Get(ctx context.Context, callerID string, id int64) (*domain.Bookmark, error) {
	bookmark, err := s.bookmarks.GetOwned(ctx, callerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return bookmark, nil
}

func (s *bookmarkService) Create(ctx context.Context, callerID string, input domain.NewBookmark) (*domain.Bookmark, error) {
	title := strings.TrimSpace(input.Title)
	link := strings.TrimSpace(input.Link)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if link == "" {
		return nil, fmt.Errorf("%w: link is required", ErrValidation)
	}

	bookmark := &domain.Bookmark{
		UserID:      callerID,
		Title:       title,
		Link:        link,
		Description: input.Description,
	}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *bookmarkService) Edit(ctx context.Context, callerID string, id int64, patch domain.BookmarkPatch) (*domain.Bookmark, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, id); err != nil {
		return nil, err
	}

	bookmark, err := s.bookmarks.Update(ctx, callerID, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return bookmark, nil
}

func (s *bookmarkService) Delete(ctx context.Context, callerID string, id int64) error {
	if err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.bookmarks.Delete(ctx, callerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	return nil
}

// authorize fetches the bookmark by id alone and checks the owner. A missing
// bookmark and a foreign one both yield ErrForbidden.
func (s *bookmarkService) authorize(ctx context.Context, callerID string, id int64) error {
	bookmark, err := s.bookmarks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if bookmark.UserID != callerID {
		return ErrForbidden
	}
	return nil
}

func validatePatch(patch domain.BookmarkPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if patch.Link != nil && strings.TrimSpace(*patch.Link) == "" {
		return fmt.Errorf("%w: link must not be empty", ErrValidation)
	}
	return nil
}
