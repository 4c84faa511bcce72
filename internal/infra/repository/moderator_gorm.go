package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type moderatorGormRepository struct {
	db *gorm.DB
}

// GORM実装
func NewModeratorGormRepository(db *gorm.DB) repo.ModeratorRepository {
	return &moderatorGormRepository{db: db}
}

func (r *moderatorGormRepository) Create(ctx context.Context, mod *model.Moderator) error {
	if err := r.db.WithContext(ctx).Create(mod).Error; err != nil {
		return err
	}
	return nil
}

// loginでモデレーターを1件取得
func (r *moderatorGormRepository) FindByLogin(ctx context.Context, login string) (*model.Moderator, error) {
	var m model.Moderator

	err := r.db.WithContext(ctx).
		Where("login = ?", login).
		First(&m).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &m, nil
}

// IDでモデレーターを1件取得
func (r *moderatorGormRepository) FindByID(ctx context.Context, id int64) (*model.Moderator, error) {
	var m model.Moderator

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &m, nil
}
