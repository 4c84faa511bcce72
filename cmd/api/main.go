package main

import (
	"context"
	"time"

	"app/internal/config"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（環境変数があれば動く）
	_ = godotenv.Load()

	//設定読み込み（シークレット必須）
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orgRepo := infraRepo.NewOrganizationGormRepository(gormDB)
	modRepo := infraRepo.NewModeratorGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	eventRepo := infraRepo.NewAuthEventGormRepository(gormDB)

	//起動時に期限切れの台帳レコードを掃除（失効判定には影響しない）
	_, _ = rtRepo.DeleteExpired(context.Background(), time.Now())

	//token codec（access/refreshで別シークレット）
	codec := token.NewCodec(cfg)

	//Usecase生成
	sessionUC := usecase.NewSessionUsecase(codec, rtRepo, eventRepo)
	v := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, orgRepo, modRepo, sessionUC, eventRepo, v)

	//Handler生成
	authH := handler.NewAuthHandler(authUC)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(addr, authH, codec); err != nil {
		panic(err)
	}
}
