package usecase

import (
	"context"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, subjectType string, login string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string) error
	ValidateLogout(ctx context.Context) error
}

type SubjectDTO struct {
	ID          int64  `json:"id"`
	SubjectType string `json:"subject_type"`
	Login       string `json:"login"`
	Role        string `json:"role,omitempty"`
	License     string `json:"license,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthRegisterResponse struct {
	Subject SubjectDTO `json:"subject"`
}

type AuthLoginRequest struct {
	SubjectType string `json:"subject_type"`
	Login       string `json:"login"`
	Password    string `json:"password"`
}

type AuthLoginResponse struct {
	Subject SubjectDTO        `json:"subject"`
	Token   JwtAccessTokenDTO `json:"token"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	RefreshExpiresAt  time.Time
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	SubjectType       model.SubjectType
	SubjectID         int64
	RefreshTokenPlain string
	RefreshExpiresAt  time.Time
}

// ログイン・refresh・logoutの入口。
// credential照合はここ、tokenの生死はSessionUsecaseに委ねる。
type AuthUsecase struct {
	cfg        config.Config
	users      repository.UserRepository
	orgs       repository.OrganizationRepository
	moderators repository.ModeratorRepository
	sessions   *SessionUsecase
	events     repository.AuthEventRepository
	validator  AuthValidator
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	orgs repository.OrganizationRepository,
	moderators repository.ModeratorRepository,
	sessions *SessionUsecase,
	events repository.AuthEventRepository,
	validator AuthValidator,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:        cfg,
		users:      users,
		orgs:       orgs,
		moderators: moderators,
		sessions:   sessions,
		events:     events,
		validator:  validator,
	}
}

// Registerはユーザーの新規登録。
func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternal
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		return nil, ErrInternal
	}

	return &AuthRegisterResponse{
		Subject: toUserDTO(user),
	}, nil
}

// Loginは主体種別ごとにcredentialを照合してtoken pairを発行する。
func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*LoginResult, error) {
	// 1) 入力検証
	if err := u.validator.ValidateLogin(ctx, req.SubjectType, req.Login, req.Password); err != nil {
		return nil, err
	}

	subjectType := model.SubjectType(req.SubjectType)

	//主体の取得＋bcrypt照合＋claim extras
	dto, extras, err := u.authenticate(ctx, subjectType, req.Login, req.Password)
	if err != nil {
		//失敗もイベントに残す（IDは不明なので0）
		_ = u.events.Create(ctx, model.AuthEvent{
			SubjectType: subjectType,
			SubjectID:   0,
			Action:      model.AuthActionLoginFailed,
			Detail:      req.Login,
		})
		return nil, err
	}

	//token pair発行（台帳に1行入る）
	pair, err := u.sessions.Issue(ctx, subjectType, dto.ID, extras)
	if err != nil {
		return nil, err
	}

	_ = u.events.Create(ctx, model.AuthEvent{
		SubjectType: subjectType,
		SubjectID:   dto.ID,
		Action:      model.AuthActionLogin,
	})

	return &LoginResult{
		Body: AuthLoginResponse{
			Subject: *dto,
			Token: JwtAccessTokenDTO{
				AccessToken: pair.AccessToken,
				ExpiresIn:   int(u.cfg.AccessTokenExpiresIn.Seconds()),
			},
		},
		RefreshTokenPlain: pair.RefreshToken,
		RefreshExpiresAt:  pair.RefreshExpiresAt,
	}, nil
}

// Refreshはrefresh tokenを検証・rotationして新しいpairを返す。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain); err != nil {
		return nil, err
	}

	res, err := u.sessions.Rotate(ctx, refreshTokenPlain)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		Body: JwtAccessTokenDTO{
			AccessToken: res.AccessToken,
			ExpiresIn:   int(u.cfg.AccessTokenExpiresIn.Seconds()),
		},
		SubjectType:       res.SubjectType,
		SubjectID:         res.SubjectID,
		RefreshTokenPlain: res.RefreshToken,
		RefreshExpiresAt:  res.RefreshExpiresAt,
	}, nil
}

// Logoutはrefresh tokenを失効させる。常に成功扱い（冪等）。
func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) (*SuccessResponse, error) {
	if err := u.validator.ValidateLogout(ctx); err != nil {
		return nil, err
	}

	if err := u.sessions.Revoke(ctx, refreshTokenPlain); err != nil {
		return nil, err
	}

	return &SuccessResponse{Message: "logout success"}, nil
}

// ListEventsは認証イベントの一覧（moderator用）。
func (u *AuthUsecase) ListEvents(ctx context.Context, filter repository.AuthEventFilter) ([]model.AuthEvent, error) {
	events, err := u.events.List(ctx, filter)
	if err != nil {
		return nil, ErrInternal
	}
	return events, nil
}

// 主体種別ごとの照合。成功したらDTOとclaim extrasを返す。
func (u *AuthUsecase) authenticate(ctx context.Context, subjectType model.SubjectType, login string, password string) (*SubjectDTO, map[string]interface{}, error) {
	switch subjectType {
	case model.SubjectUser:
		user, err := u.users.FindByEmail(ctx, login)
		if err != nil || user == nil {
			return nil, nil, ErrInvalidCredential
		}
		if !user.IsActive {
			return nil, nil, ErrForbidden
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return nil, nil, ErrInvalidCredential
		}

		//last_login更新
		now := time.Now()
		user.LastLoginAt = &now
		_ = u.users.Update(ctx, user)

		extras := map[string]interface{}{
			"role": string(user.Role),
		}
		if user.OrganizationID != nil {
			extras["org"] = *user.OrganizationID
		}
		if user.GroupID != nil {
			extras["group"] = *user.GroupID
		}

		dto := toUserDTO(user)
		return &dto, extras, nil

	case model.SubjectOrganization:
		org, err := u.orgs.FindByEmail(ctx, login)
		if err != nil || org == nil {
			return nil, nil, ErrInvalidCredential
		}
		if !org.IsActive {
			return nil, nil, ErrForbidden
		}
		if bcrypt.CompareHashAndPassword([]byte(org.PasswordHash), []byte(password)) != nil {
			return nil, nil, ErrInvalidCredential
		}

		extras := map[string]interface{}{}
		if org.License != "" {
			extras["license"] = org.License
		}

		dto := SubjectDTO{
			ID:          org.ID,
			SubjectType: string(model.SubjectOrganization),
			Login:       org.Email,
			License:     org.License,
			IsActive:    org.IsActive,
		}
		return &dto, extras, nil

	case model.SubjectModerator:
		mod, err := u.moderators.FindByLogin(ctx, login)
		if err != nil || mod == nil {
			return nil, nil, ErrInvalidCredential
		}
		if !mod.IsActive {
			return nil, nil, ErrForbidden
		}
		if bcrypt.CompareHashAndPassword([]byte(mod.PasswordHash), []byte(password)) != nil {
			return nil, nil, ErrInvalidCredential
		}

		extras := map[string]interface{}{
			"role": "moderator",
		}

		dto := SubjectDTO{
			ID:          mod.ID,
			SubjectType: string(model.SubjectModerator),
			Login:       mod.Login,
			Role:        "moderator",
			IsActive:    mod.IsActive,
		}
		return &dto, extras, nil

	default:
		return nil, nil, ErrInvalidCredential
	}
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) SubjectDTO {
	return SubjectDTO{
		ID:          u.ID,
		SubjectType: string(model.SubjectUser),
		Login:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
	}
}
