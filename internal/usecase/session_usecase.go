package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/token"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	//401 credential不一致
	ErrInvalidCredential = errors.New("invalid credential")
	//401 署名・構造が不正
	ErrInvalidToken = errors.New("invalid refresh token")
	//401 台帳に無い
	ErrTokenNotFound = errors.New("refresh token not found")
	//401 失効済み（rotation済みの再利用もここ）
	ErrTokenRevoked = errors.New("refresh token revoked")
	//401 server側の期限切れ
	ErrTokenExpired = errors.New("refresh token expired")
	//403 権限
	ErrForbidden = errors.New("forbidden")
	//500
	ErrInternal = errors.New("internal error")
)

// 発行結果。生のrefresh tokenはここで1回だけ返す（server側には残らない）。
type IssuedPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// rotation結果。新しいpairに加えて主体の識別も返す。
type RotateResult struct {
	IssuedPair
	SubjectType model.SubjectType `json:"subject_type"`
	SubjectID   int64             `json:"subject_id"`
}

// refresh tokenのissue / rotate / revokeを司るusecase。
// 台帳（RefreshTokenRepository）がtokenの生死の唯一の決定者で、
// codecの署名検証は必要条件でしかない。
type SessionUsecase struct {
	codec  *token.Codec
	ledger repository.RefreshTokenRepository
	events repository.AuthEventRepository
}

// DI
func NewSessionUsecase(
	codec *token.Codec,
	ledger repository.RefreshTokenRepository,
	events repository.AuthEventRepository,
) *SessionUsecase {
	return &SessionUsecase{
		codec:  codec,
		ledger: ledger,
		events: events,
	}
}

// Issueはaccess/refreshのpairを発行して台帳に1行書く。
// 両tokenは同一のclaimsから署名する（subject/roleがズレない）。
// INSERTに失敗したら発行そのものを失敗扱いにする（tokenは返さない）。
func (u *SessionUsecase) Issue(ctx context.Context, subjectType model.SubjectType, subjectID int64, extras map[string]interface{}) (*IssuedPair, error) {
	claims := jwt.MapClaims{}
	for k, v := range extras {
		claims[k] = v
	}

	//subとtypはextrasで上書きさせない
	claims["sub"] = strconv.FormatInt(subjectID, 10)
	claims["typ"] = string(subjectType)

	accessToken, err := u.codec.SignAccess(claims)
	if err != nil {
		return nil, ErrInternal
	}

	refreshToken, expiresAt, err := u.codec.SignRefresh(claims)
	if err != nil {
		return nil, ErrInternal
	}

	//DBにはhashだけ保存（read-onlyのDB漏洩ではsessionを作れない）
	rt := &model.RefreshToken{
		ID:          uuid.NewString(),
		SubjectType: subjectType,
		SubjectID:   subjectID,
		TokenHash:   hashToken(refreshToken),
		ExpiresAt:   expiresAt,
		RevokedAt:   nil,
	}

	if err := u.ledger.Create(ctx, rt); err != nil {
		return nil, ErrInternal
	}

	return &IssuedPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// Rotateはrefresh tokenを新しいpairに交換する。使えるのは1回だけ。
// 判定順序: 署名 → 台帳lookup → revoked → 期限 → 失効 → 再発行。
func (u *SessionUsecase) Rotate(ctx context.Context, presented string) (*RotateResult, error) {
	//署名・構造が壊れていたら台帳まで行かない
	if _, err := u.codec.VerifyRefresh(presented); err != nil {
		return nil, ErrInvalidToken
	}

	//DB照合
	tokenHash := hashToken(presented)

	rt, err := u.ledger.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, ErrInternal
	}

	//rotation済みtokenの再利用＝盗難シグナル。イベントに残して拒否。
	if rt.RevokedAt != nil {
		u.recordEvent(ctx, rt.SubjectType, rt.SubjectID, model.AuthActionReplayRejected, "rotated token replayed")
		return nil, ErrTokenRevoked
	}

	//token自身のexpより台帳のexpires_atが優先
	if rt.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	//再発行より先に旧tokenを失効させる。ここで落ちたら再ログインになるだけで、
	//tokenが二重に生きることはない。
	//条件付きUPDATEなので、同時rotationは1リクエストしか勝てない。
	if err := u.ledger.Revoke(ctx, rt.ID); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			//競争に負けた側
			return nil, ErrTokenRevoked
		}
		return nil, ErrInternal
	}

	//claimsはtyp/subだけで再発行する
	pair, err := u.Issue(ctx, rt.SubjectType, rt.SubjectID, nil)
	if err != nil {
		return nil, err
	}

	u.recordEvent(ctx, rt.SubjectType, rt.SubjectID, model.AuthActionRotate, "")

	return &RotateResult{
		IssuedPair:  *pair,
		SubjectType: rt.SubjectType,
		SubjectID:   rt.SubjectID,
	}, nil
}

// Revokeはlogout用の失効。冪等で、未知のtokenや失効済みはno-op。
// logoutがclientに失敗として見えることはない。
func (u *SessionUsecase) Revoke(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}

	tokenHash := hashToken(presented)

	rt, err := u.ledger.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil
		}
		return ErrInternal
	}

	if rt.RevokedAt != nil {
		return nil
	}

	if err := u.ledger.Revoke(ctx, rt.ID); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			//直前に別リクエストが失効させた
			return nil
		}
		return ErrInternal
	}

	u.recordEvent(ctx, rt.SubjectType, rt.SubjectID, model.AuthActionRevoke, "")

	return nil
}

// イベント記録はbest-effort（失敗しても本処理は成功扱い）
func (u *SessionUsecase) recordEvent(ctx context.Context, subjectType model.SubjectType, subjectID int64, action model.AuthAction, detail string) {
	_ = u.events.Create(ctx, model.AuthEvent{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Action:      action,
		Detail:      detail,
	})
}

// refresh tokenのhash（sha256 → base64）
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
