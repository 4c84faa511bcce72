package token

import (
	"errors"
	"time"

	"app/internal/config"

	"github.com/golang-jwt/jwt/v4"
)

// 署名・構造・期限のどれで落ちたかは呼び出し側に見せない
//（失敗モードを外に漏らすとoracleになる）
var ErrInvalidToken = errors.New("invalid token")

// access/refresh両方のtokenを署名・検証するcodec。
// シークレットは独立（access側が漏れてもrefreshは偽造できない）。
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshDays   int
}

// DI
func NewCodec(cfg config.Config) *Codec {
	return &Codec{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenExpiresIn,
		refreshDays:   cfg.RefreshTokenExpiresDays,
	}
}

// access tokenを署名する（HS256・短命）。副作用なし。
func (c *Codec) SignAccess(claims jwt.MapClaims) (string, error) {
	now := time.Now()
	return sign(claims, c.accessSecret, now, now.Add(c.accessTTL))
}

// refresh tokenを署名する（HS256・日数単位）。
// 台帳に書くserver側expiresAtも返す。
func (c *Codec) SignRefresh(claims jwt.MapClaims) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(c.refreshDays) * 24 * time.Hour)

	signed, err := sign(claims, c.refreshSecret, now, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// access tokenを検証してclaimsを返す。
func (c *Codec) VerifyAccess(raw string) (jwt.MapClaims, error) {
	return verify(raw, c.accessSecret)
}

// refresh tokenを検証してclaimsを返す。
// 失敗理由はErrInvalidTokenに集約する。
func (c *Codec) VerifyRefresh(raw string) (jwt.MapClaims, error) {
	return verify(raw, c.refreshSecret)
}

func sign(claims jwt.MapClaims, secret []byte, now time.Time, expiresAt time.Time) (string, error) {
	//呼び出し元のmapを汚さないようコピーしてからiat/expを足す
	merged := jwt.MapClaims{}
	for k, v := range claims {
		merged[k] = v
	}
	merged["iat"] = now.Unix()
	merged["exp"] = expiresAt.Unix()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, merged)
	return t.SignedString(secret)
}

func verify(raw string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
