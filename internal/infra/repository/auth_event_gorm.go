package repository

import (
	"context"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type authEventGormRepository struct {
	db *gorm.DB
}

func NewAuthEventGormRepository(db *gorm.DB) repo.AuthEventRepository {
	return &authEventGormRepository{db: db}
}

func (r *authEventGormRepository) Create(ctx context.Context, event model.AuthEvent) error {
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return err
	}
	return nil
}

func (r *authEventGormRepository) List(ctx context.Context, filter repo.AuthEventFilter) ([]model.AuthEvent, error) {
	q := r.db.WithContext(ctx).Model(&model.AuthEvent{})

	if filter.SubjectType != nil {
		q = q.Where("subject_type = ?", *filter.SubjectType)
	}
	if filter.SubjectID != nil {
		q = q.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.Action != nil {
		q = q.Where("action = ?", *filter.Action)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", *filter.CreatedTo)
	}

	//新しい順
	q = q.Order("id DESC")

	// limit/offset
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	q = q.Limit(limit).Offset(filter.Offset)

	var events []model.AuthEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
