package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService is the staff directory: admin-managed accounts plus the lookup
// used to validate delegation targets.
type UserService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserService(db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger.With(zap.String("service", "user_service")),
	}
}

func (us *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	const op = "user.get"

	var user models.User
	if err := us.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, fmt.Sprintf("user %d", id))
		}
		return nil, apperrors.Persistence(op, fmt.Sprintf("user %d", id), err)
	}
	return &user, nil
}

func (us *UserService) List(ctx context.Context) ([]models.User, error) {
	const op = "user.list"

	var users []models.User
	if err := us.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return users, nil
}

// ListActive returns the users eligible as delegation targets, name order.
func (us *UserService) ListActive(ctx context.Context) ([]models.User, error) {
	const op = "user.list_active"

	var users []models.User
	if err := us.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("full_name ASC").
		Find(&users).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return users, nil
}

type CreateUserInput struct {
	Username   string
	Password   string
	FullName   string
	Role       models.UserRole
	Department string
	Email      string
}

func (us *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	const op = "user.create"

	if in.Username == "" || in.Password == "" {
		return nil, apperrors.Validation(op, "username and password are required")
	}
	if in.FullName == "" || in.Department == "" {
		return nil, apperrors.Validation(op, "full name and department are required")
	}
	if in.Role == "" {
		in.Role = models.RoleStaff
	}
	if !in.Role.Valid() {
		return nil, apperrors.Validation(op, "unknown role %q", in.Role)
	}

	var count int64
	if err := us.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", in.Username).
		Count(&count).Error; err != nil {
		return nil, apperrors.Persistence(op, in.Username, err)
	}
	if count > 0 {
		return nil, apperrors.Validation(op, "username %q already exists", in.Username)
	}

	hash, err := utils.EncryptPassword(in.Password)
	if err != nil {
		return nil, apperrors.Persistence(op, in.Username, err)
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		Department:   in.Department,
		Email:        in.Email,
		IsActive:     true,
	}
	if err := us.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.Persistence(op, in.Username, err)
	}

	us.logger.Info("User created", zap.String("username", in.Username), zap.String("role", string(in.Role)))
	return user, nil
}

type UpdateUserInput struct {
	FullName   string
	Role       models.UserRole
	Department string
	Email      string
	IsActive   *bool
}

func (us *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) error {
	const op = "user.update"

	if in.Role != "" && !in.Role.Valid() {
		return apperrors.Validation(op, "unknown role %q", in.Role)
	}

	user, err := us.Get(ctx, id)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if in.FullName != "" {
		updates["full_name"] = in.FullName
	}
	if in.Role != "" {
		updates["role"] = in.Role
	}
	if in.Department != "" {
		updates["department"] = in.Department
	}
	if in.Email != "" {
		updates["email"] = in.Email
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return nil
	}

	if err := us.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return apperrors.Persistence(op, fmt.Sprintf("user %d", id), err)
	}
	return nil
}

func (us *UserService) Delete(ctx context.Context, id uint) error {
	const op = "user.delete"

	res := us.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return apperrors.Persistence(op, fmt.Sprintf("user %d", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(op, fmt.Sprintf("user %d", id))
	}
	return nil
}
