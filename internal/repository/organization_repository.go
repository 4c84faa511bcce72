package repository

import (
	"app/internal/domain/model"
	"context"
)

// 組織アカウントの取得を約束
type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	//見つからなければ(nil, nil)
	FindByID(ctx context.Context, orgID int64) (*model.Organization, error)
	FindByEmail(ctx context.Context, email string) (*model.Organization, error)
}
