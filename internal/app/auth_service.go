/**
 * @description
 * The identity boundary: registration and login. Passwords are stored as bcrypt
 * hashes; successful calls return a signed bearer token with an explicit expiry.
 * Token signing is injected so the API layer owns the signing key and algorithm.
 *
 * @dependencies
 * - context, strings, time: Standard Go libraries.
 * - golang.org/x/crypto/bcrypt: Password hashing.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// TokenSigner issues a signed bearer token for the given user id and TTL.
type TokenSigner func(userID uuid.UUID, email string, ttl time.Duration) (string, error)

// AuthService handles signup and login.
type AuthService struct {
	repo      store.Repository
	signToken TokenSigner
	tokenTTL  time.Duration
}

// AuthResult carries the issued credential back to the caller.
type AuthResult struct {
	UserID      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
}

// NewAuthService creates a new auth service instance.
func NewAuthService(repo store.Repository, signer TokenSigner, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, signToken: signer, tokenTTL: tokenTTL}
}

// Register creates a user account and issues a bearer token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewValidationError("a valid email address is required")
	}
	if len(password) < minPasswordLength {
		return nil, NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{ID: uuid.New(), Email: email, PasswordHash: string(hash)}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, NewConflictError("email already registered")
		}
		return nil, err
	}
	return s.issue(user)
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, NewValidationError("email and password are required")
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, NewUnauthorizedError("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, errors.New("token signer not configured")
	}
	token, err := s.signToken(user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		UserID:      user.ID,
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}
