// internal/services/user_service.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/config"
	"github.com/distrokey/distrokey-backend/internal/models"
	"github.com/distrokey/distrokey-backend/internal/utils"
)

// UserService is the identity directory for the hierarchy: it creates
// subordinates along permitted edges, resolves users to roles, and signs
// callers in.
type UserService struct {
	db                  *gorm.DB
	config              *config.Config
	notificationService *NotificationService
}

type CreateSubordinateRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Password string `json:"password" validate:"required,strong_password"`
	Role     string `json:"role" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func NewUserService(db *gorm.DB, config *config.Config, notificationService *NotificationService) *UserService {
	return &UserService{
		db:                  db,
		config:              config,
		notificationService: notificationService,
	}
}

// CreateSubordinate creates a direct child of the caller. The permitted
// child role and the parent link column both come from the hierarchy
// edge table; end users are created through provisioning, never here.
func (s *UserService) CreateSubordinate(parentID uuid.UUID, req *CreateSubordinateRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "validation failed", err)
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, apperrors.Newf(apperrors.KindInvalidArgument, "unknown role %q", req.Role)
	}

	var parent models.User
	if err := s.db.First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("parent user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if parent.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("parent account is not active")
	}

	edge, ok := models.EdgeFor(parent.Role)
	if !ok || edge.ChildRole != role || role == models.RoleEndUser {
		return nil, apperrors.Newf(apperrors.KindForbidden,
			"role %q cannot create %q accounts", parent.Role, role)
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("a user with this email already exists")
	}

	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      role,
		Status:    models.UserStatusActive,
		Hierarchy: AncestorSnapshot(&parent),
	}

	switch role {
	case models.RoleSuperDistributor:
		user.SuperAdminID = &parent.ID
	case models.RoleDistributor:
		user.SuperDistributorID = &parent.ID
	case models.RoleRetailer:
		user.DistributorID = &parent.ID
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Internal("failed to create user", err)
		}

		// Wallet row exists from day one so GetWallet and the first
		// credit both find it.
		wallet := &models.Wallet{UserID: user.ID}
		if err := tx.Create(wallet).Error; err != nil {
			return apperrors.Internal("failed to create wallet", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		go s.notificationService.SendWelcomeNotification(user, &parent)
	}

	return user, nil
}

func (s *UserService) Login(req *LoginRequest) (*LoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidArgument, "validation failed", err)
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Forbidden("invalid email or password")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.Forbidden("invalid email or password")
	}

	if user.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("account is suspended")
	}

	accessToken, err := utils.GenerateJWT(user.ID, user.Name, string(user.Role), s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate access token", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.config.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate refresh token", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	}, nil
}

func (s *UserService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Wallet").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	return &user, nil
}

// ListSubordinates returns the caller's direct children, found by
// filtering on the edge's link column. No parent->child back-pointers
// are maintained.
func (s *UserService) ListSubordinates(parentID uuid.UUID) ([]models.User, error) {
	var parent models.User
	if err := s.db.First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}

	edge, ok := models.EdgeFor(parent.Role)
	if !ok || edge.ChildRole == models.RoleEndUser {
		return []models.User{}, nil
	}

	var subordinates []models.User
	if err := s.db.Preload("Wallet").
		Where(edge.LinkField+" = ?", parent.ID).
		Order("created_at ASC").
		Find(&subordinates).Error; err != nil {
		return nil, apperrors.Internal("failed to fetch subordinates", err)
	}

	return subordinates, nil
}
