package server

import (
	"app/internal/handler"
	"app/internal/middleware"
	"app/internal/token"

	"github.com/labstack/echo/v4"
)

// 認証まわりのルートを登録
func RegisterRoutes(e *echo.Echo, authH *handler.AuthHandler, codec *token.Codec) {
	e.POST("/auth/register", authH.Register)
	e.POST("/auth/login", authH.Login)
	e.POST("/auth/refresh", authH.Refresh)
	e.POST("/auth/logout", authH.Logout)

	//access tokenが必要なルート
	authed := e.Group("/auth", middleware.AuthJWT(codec))
	authed.GET("/me", authH.Me)
	authed.GET("/events", authH.ListEvents, middleware.ModeratorGuard())
}
