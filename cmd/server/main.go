package main

import (
	"context"
	"log"

	"github.com/drinkwell/internal/config"
	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/router"
	"github.com/drinkwell/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath, nil)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(gdb, cfg.AppUserName, cfg.AppPassword); err != nil {
		log.Fatalf("failed to ensure account: %v", err)
	}
	authEnabled, err := db.HasUsers(gdb)
	if err != nil {
		log.Fatalf("failed to check accounts: %v", err)
	}

	defaults := service.DefaultPreferences()
	defaults.ReminderStartHour = cfg.ReminderStartHour
	defaults.ReminderEndHour = cfg.ReminderEndHour

	app, err := service.NewApp(service.Options{
		DB:                     gdb,
		Location:               cfg.Location,
		Defaults:               &defaults,
		NotificationsAutoGrant: cfg.NotificationsAutoGrant,
		WidgetRefreshInterval:  cfg.WidgetRefreshInterval,
	})
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}
	// 记录无法加载时无法继续运行
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("failed to load data: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(app, gdb, cfg.SessionSecret, authEnabled)
	log.Printf("[server] listening on %s (auth=%v)", cfg.ListenAddr, authEnabled)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
