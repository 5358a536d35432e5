package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/auth"
	"github.com/cantinaverde/cantina/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// AuthService handles authentication operations
type AuthService struct {
	users      UserStore
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login authenticates a user and issues a session token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Warn().Str("email", email).Msg("Login attempt for unknown user")
			metrics.RecordLogin(false)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Accounts created outside the app may have no password yet
	if user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, req.Password) {
		s.logger.Warn().Str("userID", user.ID).Msg("Login attempt with invalid password")
		metrics.RecordLogin(false)
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.jwtService.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.RecordLogin(true)
	s.logger.Info().Str("userID", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		User:      dto.NewSessionUser(user),
	}, nil
}

// Me returns the user behind the current session
func (s *AuthService) Me(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.MeResponse{User: dto.NewSessionUser(user)}, nil
}
