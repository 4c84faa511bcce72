package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
	"time"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// refresh token台帳の保存・取得・失効
type RefreshTokenRepository interface {
	//台帳レコードを1件追加
	Create(ctx context.Context, token *model.RefreshToken) error

	//token_hashで1件検索。無ければErrRefreshTokenNotFound
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)

	//revoked_atをセットして失効させる。
	//「まだrevokeされていない行だけ」を条件付きUPDATEで更新し、
	//0件ならErrRefreshTokenNotFound（既に失効済み or 存在しない）。
	Revoke(ctx context.Context, tokenID string) error

	//期限切れレコードの掃除。削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
