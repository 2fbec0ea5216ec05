package service

import (
	"context"
	"strings"

	"bookmarks-api/internal/domain"
	"bookmarks-api/internal/repository"
)

// UserService reads and edits the caller's own profile.
type UserService interface {
	GetSelf(ctx context.Context, callerID string) (*domain.User, error)
	EditSelf(ctx context.Context, callerID string, patch domain.UserPatch) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetSelf(ctx context.Context, callerID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) EditSelf(ctx context.Context, callerID string, patch domain.UserPatch) (*domain.User, error) {
	patch.FirstName = trimmed(patch.FirstName)
	patch.LastName = trimmed(patch.LastName)

	user, err := s.users.Update(ctx, callerID, patch)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
