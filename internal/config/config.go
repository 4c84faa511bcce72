package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	AccessTokenSecret  string // access token署名シークレット
	RefreshTokenSecret string // refresh token署名シークレット（accessとは独立）

	AccessTokenExpiresIn    time.Duration // access tokenの有効期限
	RefreshTokenExpiresDays int           // refresh tokenの有効期限（日数）
}

// Loadは環境変数から設定を読み込む
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
	}

	//必須チェック（シークレットが無いと署名が全部失敗する）
	if cfg.AccessTokenSecret == "" {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}

	//access tokenのTTL（default 15m）
	accessTTL := 15 * time.Minute
	if v := os.Getenv("ACCESS_TOKEN_EXPIRES_IN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRES_IN must be duration: %w", err)
		}
		accessTTL = d
	}
	cfg.AccessTokenExpiresIn = accessTTL

	//refresh tokenのTTL（default 7日）
	refreshDays := 7
	if v := os.Getenv("REFRESH_TOKEN_EXPIRES_DAYS"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i <= 0 {
			return Config{}, fmt.Errorf("REFRESH_TOKEN_EXPIRES_DAYS must be positive number")
		}
		refreshDays = i
	}
	cfg.RefreshTokenExpiresDays = refreshDays

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
