package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr             string
	Port                   string
	DatabasePath           string
	SessionSecret          string
	GinMode                string
	AppUserName            string
	AppPassword            string
	Location               *time.Location
	ReminderStartHour      int
	ReminderEndHour        int
	NotificationsAutoGrant bool
	WidgetRefreshInterval  time.Duration
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 若工作目录存在 .env 文件，会先加载其中的变量，已存在的环境变量不会被覆盖。
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] failed to load .env: %v", err)
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "data/drinkwell.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "drinkwell-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	location := time.Local
	if name := strings.TrimSpace(os.Getenv("TIMEZONE")); name != "" {
		if loaded, err := time.LoadLocation(name); err == nil {
			location = loaded
		} else {
			log.Printf("[config] unknown TIMEZONE %q, falling back to local: %v", name, err)
		}
	}

	startHour := intFromEnv("REMINDER_START_HOUR", 8)
	endHour := intFromEnv("REMINDER_END_HOUR", 22)
	if startHour < 0 || startHour > 23 || endHour < startHour || endHour > 23 {
		log.Printf("[config] invalid reminder window %d-%d, using 8-22", startHour, endHour)
		startHour, endHour = 8, 22
	}

	refreshMinutes := intFromEnv("WIDGET_REFRESH_MINUTES", 15)
	if refreshMinutes <= 0 {
		refreshMinutes = 15
	}

	return AppConfig{
		ListenAddr:             listenAddr,
		Port:                   port,
		DatabasePath:           databasePath,
		SessionSecret:          sessionSecret,
		GinMode:                ginMode,
		AppUserName:            strings.TrimSpace(os.Getenv("APP_USERNAME")),
		AppPassword:            strings.TrimSpace(os.Getenv("APP_PASSWORD")),
		Location:               location,
		ReminderStartHour:      startHour,
		ReminderEndHour:        endHour,
		NotificationsAutoGrant: boolFromEnv("NOTIFICATIONS_AUTO_GRANT", true),
		WidgetRefreshInterval:  time.Duration(refreshMinutes) * time.Minute,
	}
}

func intFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, using %d", key, raw, fallback)
		return fallback
	}
	return value
}

func boolFromEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("[config] %s=%q is not a boolean, using %t", key, raw, fallback)
		return fallback
	}
	return value
}
