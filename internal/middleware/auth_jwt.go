package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"app/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxSubjectIDKey   = "subject_id"   // int64
	CtxSubjectTypeKey = "subject_type" // string
	CtxRoleKey        = "role"         // string（無いtokenもある）
)

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//access secretで検証（refresh tokenはここを通れない）
			claims, err := codec.VerifyAccess(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//subを取り出す
			subjectID, err := parseSubjectID(claims["sub"])
			if err != nil || subjectID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//typを取り出す（user/organization/moderator）
			subjectType, ok := claims["typ"].(string)
			if !ok || subjectType == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//roleは任意
			role, _ := claims["role"].(string)

			//contextへ保存
			c.Set(CtxSubjectIDKey, subjectID)
			c.Set(CtxSubjectTypeKey, subjectType)
			c.Set(CtxRoleKey, role)

			return next(c)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// subをint64に変換する
func parseSubjectID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, echo.ErrUnauthorized
	}
}
