package middleware

import (
	"net/http"

	"app/internal/domain/model"

	"github.com/labstack/echo/v4"
)

//contextに入っているtypがmoderatorかどうかを確認します。

func ModeratorGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawType := c.Get(CtxSubjectTypeKey)
			subjectType, ok := rawType.(string)
			if !ok || subjectType == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//moderatorだけ許可
			if subjectType != string(model.SubjectModerator) {
				return c.JSON(http.StatusForbidden, errorJSON("moderator only"))
			}

			return next(c)
		}
	}
}
