package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// usecaseのsentinel errorをHTTPステータスに変換する。
// 期待される失敗（401系）とstorage fault（500）をここで分ける。
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, validator.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error"})
	case errors.Is(err, validator.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict"})
	case errors.Is(err, validator.ErrInvalidRefresh),
		errors.Is(err, usecase.ErrInvalidCredential),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrTokenNotFound),
		errors.Is(err, usecase.ErrTokenRevoked),
		errors.Is(err, usecase.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	default:
		//500（詳細は漏らさない）
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// /auth のAPI
type AuthHandler struct {
	uc           *usecase.AuthUsecase
	cookieSecure bool
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		cookieSecure: envBool("COOKIE_SECURE", true),
	}
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	default:
		return def
	}
}

// /auth/refresh・/auth/logout のリクエストボディ（cookieが無い場合のfallback）。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Registerは POST /auth/register のハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error"})
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// Loginは POST /auth/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error"})
	}

	out, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	// refresh cookie（HttpOnly。JSには触らせない）
	h.setRefreshCookie(c, out.RefreshTokenPlain, out.RefreshExpiresAt)

	//JSONレスポンス（subject + token）
	return c.JSON(http.StatusOK, out.Body)
}

// Refreshは POST /auth/refresh のハンドラ。
// refresh tokenはcookie優先、無ければbodyから取る。
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := h.refreshTokenFrom(c)

	out, err := h.uc.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		return writeError(c, err)
	}

	//rotationしたので新しいrefresh tokenに差し替える
	h.setRefreshCookie(c, out.RefreshTokenPlain, out.RefreshExpiresAt)

	return c.JSON(http.StatusOK, out.Body)
}

// Logoutは POST /auth/logout のハンドラ。常に200（冪等）。
func (h *AuthHandler) Logout(c echo.Context) error {
	refreshToken := h.refreshTokenFrom(c)

	out, err := h.uc.Logout(c.Request().Context(), refreshToken)
	if err != nil {
		return writeError(c, err)
	}

	h.clearRefreshCookie(c)

	return c.JSON(http.StatusOK, out)
}

// Meは GET /auth/me のハンドラ（AuthJWT必須）。
func (h *AuthHandler) Me(c echo.Context) error {
	subjectID, _ := c.Get(middleware.CtxSubjectIDKey).(int64)
	subjectType, _ := c.Get(middleware.CtxSubjectTypeKey).(string)
	role, _ := c.Get(middleware.CtxRoleKey).(string)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"subject_id":   subjectID,
		"subject_type": subjectType,
		"role":         role,
	})
}

// ListEventsは GET /auth/events のハンドラ（moderatorのみ）。
func (h *AuthHandler) ListEvents(c echo.Context) error {
	filter := repository.AuthEventFilter{}

	if v := c.QueryParam("subject_type"); v != "" {
		st := model.SubjectType(v)
		if !st.Valid() {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid subject_type"})
		}
		filter.SubjectType = &st
	}

	if v := c.QueryParam("subject_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid subject_id"})
		}
		filter.SubjectID = &id
	}

	if v := c.QueryParam("action"); v != "" {
		a := model.AuthAction(v)
		filter.Action = &a
	}

	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		filter.Limit = l
	}

	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		filter.Offset = o
	}

	events, err := h.uc.ListEvents(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, events)
}

// cookie優先でrefresh tokenを取り出す
func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	if cookie, err := c.Cookie("refresh"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string, expiresAt time.Time) {
	cookie := &http.Cookie{
		Name:     "refresh",
		Value:    plainRefresh,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	}
	c.SetCookie(cookie)
}

// refresh cookieを消す
func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	cookie := &http.Cookie{
		Name:     "refresh",
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
	c.SetCookie(cookie)
}
