package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/easyplit/easyplit/internal/auth"
	"github.com/easyplit/easyplit/internal/models"
)

// UserLookup fetches users by ID.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Session is a signed-in user and their token.
type Session struct {
	User  *models.User
	Token string
}

// AuthService handles sign-up, sign-in and the current-user lookup.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         UserLookup
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users UserLookup, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*Session, error) {
	s.logger.Info("Register request", "email", email)

	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidArgument)
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("%w: display name required", ErrInvalidArgument)
	}

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", email, "error", err)
		return nil, err
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return session, nil
}

// Login authenticates a user and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	s.logger.Info("Login request", "email", email)

	if email == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, err
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return session, nil
}

// CurrentUser returns the full record of the authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, auth.ErrMissingToken
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("CurrentUser lookup failed", "user_id", userID, "error", err)
		return nil, err
	}
	return user, nil
}

func (s *AuthService) newSession(user *models.User) (*Session, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}
