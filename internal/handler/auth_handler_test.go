package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/repository"
	"app/internal/server"
	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// in-memoryのrepo群（handlerからDBなしで全経路を通す）
// =====================

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*model.User
}

func (m *memUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = int64(len(m.byEmail) + 1)
	m.byEmail[user.Email] = user
	return nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byEmail[email], nil
}

func (m *memUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Update(ctx context.Context, user *model.User) error { return nil }

type memOrgs struct{}

func (m *memOrgs) Create(ctx context.Context, org *model.Organization) error { return nil }
func (m *memOrgs) FindByEmail(ctx context.Context, email string) (*model.Organization, error) {
	return nil, nil
}
func (m *memOrgs) FindByID(ctx context.Context, id int64) (*model.Organization, error) {
	return nil, nil
}

type memMods struct {
	mod *model.Moderator
}

func (m *memMods) Create(ctx context.Context, mod *model.Moderator) error { return nil }
func (m *memMods) FindByLogin(ctx context.Context, login string) (*model.Moderator, error) {
	if m.mod != nil && m.mod.Login == login {
		return m.mod, nil
	}
	return nil, nil
}
func (m *memMods) FindByID(ctx context.Context, id int64) (*model.Moderator, error) {
	return m.mod, nil
}

type memLedger struct {
	mu     sync.Mutex
	byHash map[string]*model.RefreshToken
	byID   map[string]*model.RefreshToken
}

func newMemLedger() *memLedger {
	return &memLedger{byHash: map[string]*model.RefreshToken{}, byID: map[string]*model.RefreshToken{}}
}

func (m *memLedger) Create(ctx context.Context, t *model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.byHash[t.TokenHash] = &cp
	m.byID[t.ID] = &cp
	return nil
}

func (m *memLedger) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[tokenHash]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memLedger) Revoke(ctx context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[tokenID]
	if !ok || t.RevokedAt != nil {
		return repository.ErrRefreshTokenNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memLedger) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type memEvents struct {
	mu      sync.Mutex
	records []model.AuthEvent
}

func (m *memEvents) Create(ctx context.Context, event model.AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = int64(len(m.records) + 1)
	m.records = append(m.records, event)
	return nil
}

func (m *memEvents) List(ctx context.Context, filter repository.AuthEventFilter) ([]model.AuthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuthEvent{}, m.records...), nil
}

// =====================
// Helper
// =====================

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(b)
}

// handler〜usecase〜fake repoまで繋いだechoを組み立てる
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := config.Config{
		AccessTokenSecret:       "access-secret",
		RefreshTokenSecret:      "refresh-secret",
		AccessTokenExpiresIn:    15 * time.Minute,
		RefreshTokenExpiresDays: 7,
	}

	users := &memUsers{byEmail: map[string]*model.User{
		"user@example.com": {
			ID:           42,
			Email:        "user@example.com",
			PasswordHash: mustHash(t, "password123"),
			Role:         model.RoleUser,
			IsActive:     true,
		},
	}}
	mods := &memMods{mod: &model.Moderator{
		ID:           3,
		Login:        "mod01",
		PasswordHash: mustHash(t, "password123"),
		IsActive:     true,
	}}

	codec := token.NewCodec(cfg)
	ledger := newMemLedger()
	events := &memEvents{}

	sessionUC := usecase.NewSessionUsecase(codec, ledger, events)
	v := validator.NewAuthValidator(users)
	authUC := usecase.NewAuthUsecase(cfg, users, &memOrgs{}, mods, sessionUC, events, v)

	return server.New(handler.NewAuthHandler(authUC), codec)
}

func postJSON(e *echo.Echo, path string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh" {
			return c
		}
	}
	return nil
}

func login(t *testing.T, e *echo.Echo, subjectType string, loginName string) (*httptest.ResponseRecorder, *http.Cookie) {
	t.Helper()
	body := `{"subject_type":"` + subjectType + `","login":"` + loginName + `","password":"password123"}`
	rec := postJSON(e, "/auth/login", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := refreshCookie(rec)
	assert.NotNil(t, cookie)
	return rec, cookie
}

// =====================
// Login
// =====================

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestServer(t)

	rec, cookie := login(t, e, "user", "user@example.com")

	var res usecase.AuthLoginResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(42), res.Subject.ID)
	assert.NotEmpty(t, res.Token.AccessToken)
	assert.Equal(t, 900, res.Token.ExpiresIn)

	// refresh tokenはbodyではなくHttpOnly cookie
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
	assert.NotContains(t, rec.Body.String(), cookie.Value)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	e := newTestServer(t)

	rec := postJSON(e, "/auth/login", `{"subject_type":"user","login":"user@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, refreshCookie(rec))
}

func TestAuthHandler_Login_UnknownSubjectType(t *testing.T) {
	e := newTestServer(t)

	rec := postJSON(e, "/auth/login", `{"subject_type":"robot","login":"user@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =====================
// Refresh
// =====================

func TestAuthHandler_Refresh_RotatesCookie(t *testing.T) {
	e := newTestServer(t)

	_, c1 := login(t, e, "user", "user@example.com")

	//R1でrefresh → R2
	rec := postJSON(e, "/auth/refresh", "", c1)
	assert.Equal(t, http.StatusOK, rec.Code)
	c2 := refreshCookie(rec)
	assert.NotNil(t, c2)
	assert.NotEqual(t, c1.Value, c2.Value)

	//R1の再利用は401
	rec = postJSON(e, "/auth/refresh", "", c1)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	//R2はまだ使える
	rec = postJSON(e, "/auth/refresh", "", c2)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_Refresh_BodyFallback(t *testing.T) {
	e := newTestServer(t)

	_, c1 := login(t, e, "user", "user@example.com")

	//cookieなしでもbodyのrefresh_tokenで通る
	rec := postJSON(e, "/auth/refresh", `{"refresh_token":"`+c1.Value+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_Refresh_Garbage(t *testing.T) {
	e := newTestServer(t)

	rec := postJSON(e, "/auth/refresh", `{"refresh_token":"garbage-string"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Refresh_NoToken(t *testing.T) {
	e := newTestServer(t)

	rec := postJSON(e, "/auth/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// Logout
// =====================

func TestAuthHandler_Logout_Idempotent(t *testing.T) {
	e := newTestServer(t)

	_, c1 := login(t, e, "user", "user@example.com")

	rec := postJSON(e, "/auth/logout", "", c1)
	assert.Equal(t, http.StatusOK, rec.Code)

	//logout後のcookieは消される
	cleared := refreshCookie(rec)
	assert.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	//2回目も200
	rec = postJSON(e, "/auth/logout", "", c1)
	assert.Equal(t, http.StatusOK, rec.Code)

	//失効済みtokenでのrefreshは401
	rec = postJSON(e, "/auth/refresh", "", c1)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// Me / Events
// =====================

func bearerGet(e *echo.Echo, path string, accessToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func accessTokenFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var res usecase.AuthLoginResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token.AccessToken
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestServer(t)

	rec, _ := login(t, e, "user", "user@example.com")
	access := accessTokenFrom(t, rec)

	res := bearerGet(e, "/auth/me", access)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"subject_type":"user"`)

	//tokenなしは401
	res = bearerGet(e, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthHandler_Events_ModeratorOnly(t *testing.T) {
	e := newTestServer(t)

	//userのtokenでは403
	rec, _ := login(t, e, "user", "user@example.com")
	res := bearerGet(e, "/auth/events", accessTokenFrom(t, rec))
	assert.Equal(t, http.StatusForbidden, res.Code)

	//moderatorなら200でイベントが見える
	rec, _ = login(t, e, "moderator", "mod01")
	res = bearerGet(e, "/auth/events", accessTokenFrom(t, rec))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"LOGIN"`)
}
