package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type organizationGormRepository struct {
	db *gorm.DB
}

// GORM実装
func NewOrganizationGormRepository(db *gorm.DB) repo.OrganizationRepository {
	return &organizationGormRepository{db: db}
}

func (r *organizationGormRepository) Create(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return err
	}
	return nil
}

// emailで組織を1件取得
func (r *organizationGormRepository) FindByEmail(ctx context.Context, email string) (*model.Organization, error) {
	var o model.Organization

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&o).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &o, nil
}

// IDで組織を1件取得
func (r *organizationGormRepository) FindByID(ctx context.Context, id int64) (*model.Organization, error) {
	var o model.Organization

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&o).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &o, nil
}
