package repository

import (
	"app/internal/domain/model"
	"context"
)

// モデレーターの取得を約束
type ModeratorRepository interface {
	Create(ctx context.Context, mod *model.Moderator) error
	//見つからなければ(nil, nil)
	FindByID(ctx context.Context, modID int64) (*model.Moderator, error)
	FindByLogin(ctx context.Context, login string) (*model.Moderator, error)
}
