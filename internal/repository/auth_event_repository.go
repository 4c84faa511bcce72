package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

//認証イベントの絞り込み条件。

type AuthEventFilter struct {
	SubjectType *model.SubjectType
	SubjectID   *int64
	Action      *model.AuthAction
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// 認証イベントの保存・一覧取得の約束。
type AuthEventRepository interface {
	//イベントを1件保存
	Create(ctx context.Context, event model.AuthEvent) error

	//イベントを条件で一覧取得。
	List(ctx context.Context, filter AuthEventFilter) ([]model.AuthEvent, error)
}
