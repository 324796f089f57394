package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// TokenConfig groups the signing material for issued token pairs.
type TokenConfig struct {
	Secret        string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthService exposes account registration and token issuance.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    TokenConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService builds a new auth service.
func NewAuthService(users repository.UserRepository, tokens TokenConfig, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		PasswordHash: string(hash),
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Role:         role,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	return s.issueTokens(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(payload.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	token, err := jwt.Parse(payload.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.tokens.RefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return dto.AuthResponse{}, ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return dto.AuthResponse{}, ErrInvalidRefreshToken
	}

	if kind, _ := claims["token_type"].(string); kind != "refresh" {
		return dto.AuthResponse{}, ErrInvalidRefreshToken
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return dto.AuthResponse{}, ErrInvalidRefreshToken
	}

	userID, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return dto.AuthResponse{}, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidRefreshToken
		}
		return dto.AuthResponse{}, err
	}

	return s.issueTokens(user)
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) issueTokens(user models.User) (dto.AuthResponse, error) {
	now := s.now()
	subject := strconv.FormatUint(uint64(user.ID), 10)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokens.AccessTTL).Unix(),
	})

	accessToken, err := access.SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        subject,
		"token_type": "refresh",
		"iat":        now.Unix(),
		"exp":        now.Add(s.tokens.RefreshTTL).Unix(),
	})

	refreshToken, err := refresh.SignedString([]byte(s.tokens.RefreshSecret))
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return dto.AuthResponse{
		User:         dto.NewUserResponse(user),
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}
