package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/pkg/logger"
)

// Service provides login and user management.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService creates a new auth service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login checks the credentials and issues an access token. Wrong email and
// wrong password return the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !u.Active {
		return nil, apperror.NewUnauthorized("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "failed login attempt", "email", email)
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.tokens.Generate(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u}, nil
}

// CreateUser registers a new user with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, email, name, password string, isAdmin bool) (*User, error) {
	if len(password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}

	u := NewUser(email, name)
	u.IsAdmin = isAdmin
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	u.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info(ctx, "user created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperror.NewUnauthorized("current password is incorrect")
	}
	if len(next) < 8 {
		return apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return s.repo.Update(ctx, u)
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// VerifyToken validates an access token and returns its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	return s.tokens.Verify(tokenString)
}
