package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	StoreDSN      string
	LedgerPath    string
	AdminKey      string
	GameURL       string
	SiteBaseURL   string
	KioskTimezone string
	PosterNotice  string
	SessionSecret string
	GinMode       string
}

// TokenPlaceholder 是 GAME_URL 中可选的令牌占位符。
const TokenPlaceholder = "{token}"

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	// STORE_DSN 非空时选用关系型存储，留空时回退到单文件存储。
	storeDSN := strings.TrimSpace(os.Getenv("STORE_DSN"))

	ledgerPath := strings.TrimSpace(os.Getenv("LEDGER_PATH"))
	if ledgerPath == "" {
		ledgerPath = "kioskgate.db"
	}

	gameURL := strings.TrimSpace(os.Getenv("GAME_URL"))
	if gameURL == "" {
		gameURL = "https://game.example.com/play?code={token}"
	}

	siteBaseURL := strings.TrimSpace(os.Getenv("SITE_BASE_URL"))
	if siteBaseURL == "" {
		siteBaseURL = fmt.Sprintf("http://localhost:%s", port)
	}
	siteBaseURL = strings.TrimRight(siteBaseURL, "/")

	kioskTimezone := strings.TrimSpace(os.Getenv("KIOSK_TIMEZONE"))
	if kioskTimezone == "" {
		kioskTimezone = "Asia/Shanghai"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "kioskgate-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		StoreDSN:      storeDSN,
		LedgerPath:    ledgerPath,
		AdminKey:      strings.TrimSpace(os.Getenv("ADMIN_KEY")),
		GameURL:       gameURL,
		SiteBaseURL:   siteBaseURL,
		KioskTimezone: kioskTimezone,
		PosterNotice:  strings.TrimSpace(os.Getenv("POSTER_NOTICE")),
		SessionSecret: sessionSecret,
		GinMode:       ginMode,
	}
}
