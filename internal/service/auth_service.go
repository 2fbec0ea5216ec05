package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bookmarks-api/internal/auth"
	"bookmarks-api/internal/domain"
	"bookmarks-api/internal/repository"
)

// AuthService registers users, checks their credentials and resolves callers from tokens.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (string, error)
	Signin(ctx context.Context, email, password string) (string, error)
	Authorize(ctx context.Context, token string) (auth.Identity, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
	}
}

func (s *authService) Signup(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", ErrCredentialsTaken
		}
		return "", err
	}

	return s.tokens.Issue(user.ID, user.Email)
}

func (s *authService) Signin(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID, user.Email)
}

// Authorize verifies the token and confirms its subject still exists.
func (s *authService) Authorize(ctx context.Context, token string) (auth.Identity, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, err
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Identity{}, fmt.Errorf("%w: unknown subject", auth.ErrInvalidToken)
		}
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: user.ID, Email: user.Email}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
