package service

import (
	"context"
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

const defaultUserPageSize = 20

// UserPage bundles a user listing with pagination metadata.
type UserPage struct {
	Users       []dto.UserResponse `json:"users"`
	Total       int64              `json:"total"`
	TotalPages  int                `json:"total_pages"`
	CurrentPage int                `json:"current_page"`
}

// AdminUserService exposes account administration use cases.
type AdminUserService interface {
	List(ctx context.Context, query dto.UserListQuery) (UserPage, error)
	UpdateRole(ctx context.Context, userID uint, payload dto.RoleUpdateRequest) (dto.UserResponse, error)
	Delete(ctx context.Context, userID uint) error
}

type adminUserService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminUserService builds a new admin user service.
func NewAdminUserService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) AdminUserService {
	return &adminUserService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "admin_user_service").Logger(),
	}
}

func (s *adminUserService) List(ctx context.Context, query dto.UserListQuery) (UserPage, error) {
	if err := s.validator.Struct(query); err != nil {
		return UserPage{}, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultUserPageSize
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Role:     query.Role,
		Search:   query.Search,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return UserPage{}, err
	}

	return UserPage{
		Users:       dto.NewUserResponseSlice(users),
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	}, nil
}

func (s *adminUserService) UpdateRole(ctx context.Context, userID uint, payload dto.RoleUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if !models.ValidRole(payload.Role) {
		return dto.UserResponse{}, errors.New("unknown role")
	}

	user.Role = payload.Role
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Str("role", payload.Role).Msg("user role updated")

	return dto.NewUserResponse(user), nil
}

func (s *adminUserService) Delete(ctx context.Context, userID uint) error {
	if err := s.users.DeleteCascade(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", userID).Msg("user deleted")
	return nil
}
