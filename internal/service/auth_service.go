package service

import (
	"context"
	"fmt"
	"time"

	"userhub/internal/auth"
	apperrors "userhub/internal/errors"
	"userhub/internal/model"
	"userhub/internal/repository"
)

// AuthService handles credential-based authentication.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context, tokenID string, expires time.Time) error
}

type authService struct {
	repo        repository.UserRepository
	tokens      TokenIssuer
	revocations auth.RevocationStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(repo repository.UserRepository, tokens TokenIssuer, revocations auth.RevocationStoreInterface) AuthService {
	return &authService{
		repo:        repo,
		tokens:      tokens,
		revocations: revocations,
	}
}

// Login verifies credentials, mints a fresh bearer token, stores it on the
// user and refreshes lastLogin. Any mismatch collapses to
// ErrInvalidCredentials so the response does not reveal which part failed.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := checkPassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	user.Token = token
	user.LastLogin = time.Now()

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("persist login: %w", err)
	}
	return user, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *authService) Logout(ctx context.Context, tokenID string, expires time.Time) error {
	return s.revocations.Revoke(ctx, tokenID, time.Until(expires))
}
