package server

import (
	"app/internal/handler"
	"app/internal/token"

	"github.com/labstack/echo/v4"
)

// Newはルート登録済みのechoを返す（テストからも使う）
func New(authH *handler.AuthHandler, codec *token.Codec) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	RegisterRoutes(e, authH, codec)

	return e
}

func Start(addr string, authH *handler.AuthHandler, codec *token.Codec) error {
	return New(authH, codec).Start(addr)
}
