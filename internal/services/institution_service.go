package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InstitutionService manages the correspondence counterpart directory. Pure
// reference data, used for display only.
type InstitutionService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewInstitutionService(db *gorm.DB, logger *zap.Logger) *InstitutionService {
	return &InstitutionService{
		db:     db,
		logger: logger.With(zap.String("service", "institution_service")),
	}
}

func (is *InstitutionService) List(ctx context.Context) ([]models.Institution, error) {
	const op = "institution.list"

	var institutions []models.Institution
	if err := is.db.WithContext(ctx).Order("name ASC").Find(&institutions).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return institutions, nil
}

func (is *InstitutionService) ListActive(ctx context.Context) ([]models.Institution, error) {
	const op = "institution.list_active"

	var institutions []models.Institution
	if err := is.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&institutions).Error; err != nil {
		return nil, apperrors.Persistence(op, "", err)
	}
	return institutions, nil
}

func (is *InstitutionService) Get(ctx context.Context, id uint) (*models.Institution, error) {
	const op = "institution.get"

	var inst models.Institution
	if err := is.db.WithContext(ctx).First(&inst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, fmt.Sprintf("institution %d", id))
		}
		return nil, apperrors.Persistence(op, fmt.Sprintf("institution %d", id), err)
	}
	return &inst, nil
}

func (is *InstitutionService) Create(ctx context.Context, inst *models.Institution) error {
	const op = "institution.create"

	if inst.Name == "" {
		return apperrors.Validation(op, "name is required")
	}
	if inst.Type == "" {
		inst.Type = models.InstOther
	}

	var count int64
	if err := is.db.WithContext(ctx).Model(&models.Institution{}).
		Where("name = ?", inst.Name).
		Count(&count).Error; err != nil {
		return apperrors.Persistence(op, inst.Name, err)
	}
	if count > 0 {
		return apperrors.Validation(op, "institution %q already exists", inst.Name)
	}

	if err := is.db.WithContext(ctx).Create(inst).Error; err != nil {
		return apperrors.Persistence(op, inst.Name, err)
	}
	return nil
}

func (is *InstitutionService) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	const op = "institution.update"

	inst, err := is.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := is.db.WithContext(ctx).Model(inst).Updates(updates).Error; err != nil {
		return apperrors.Persistence(op, fmt.Sprintf("institution %d", id), err)
	}
	return nil
}

func (is *InstitutionService) Delete(ctx context.Context, id uint) error {
	const op = "institution.delete"

	res := is.db.WithContext(ctx).Delete(&models.Institution{}, id)
	if res.Error != nil {
		return apperrors.Persistence(op, fmt.Sprintf("institution %d", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(op, fmt.Sprintf("institution %d", id))
	}
	return nil
}
