package router

import (
	"strings"

	"github.com/drinkwell/internal/handler"
	"github.com/drinkwell/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultSessionSecret = "drinkwell-dev-secret"

// SetupRouter 配置 Gin 引擎和路由
// authEnabled 为 true 时 /api 与 /mcp 需要先登录
func SetupRouter(app *service.App, gdb *gorm.DB, sessionSecret string, authEnabled bool) *gin.Engine {
	r := gin.Default()

	secret := strings.TrimSpace(sessionSecret)
	if secret == "" {
		secret = defaultSessionSecret
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 30 * 24 * 60 * 60})
	r.Use(sessions.Sessions("drinkwell_session", store))

	api := handler.NewAPI(app, gdb, authEnabled)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 深链接，例如 /open?url=drinkwell://add-water
	r.GET("/open", api.OpenDeepLink)

	r.POST("/api/login", api.Login)
	r.POST("/api/logout", api.Logout)

	r.POST("/mcp", api.AuthRequired(), api.HandleMCP)

	auth := r.Group("/api")
	auth.Use(api.AuthRequired())
	{
		auth.GET("/intakes", api.ListIntakes)
		auth.POST("/intakes", api.CreateIntake)
		auth.POST("/intakes/save", api.SaveIntakes)
		auth.DELETE("/intakes/:id", api.DeleteIntake)

		auth.GET("/stats/today", api.GetTodayStats)
		auth.GET("/stats/weekly", api.GetWeeklyStats)
		auth.GET("/stats/monthly", api.GetMonthlyStats)
		auth.GET("/stats/summary", api.GetSummary)

		auth.GET("/preferences", api.GetPreferences)
		auth.PUT("/preferences", api.UpdatePreferences)
		auth.POST("/preferences/units", api.SetUnitSystem)
		auth.POST("/preferences/reset", api.ResetPreferences)
		auth.GET("/preferences/suggested-intake", api.GetSuggestedIntake)

		auth.GET("/reminders", api.GetReminders)
		auth.PUT("/reminders", api.UpdateReminders)
		auth.POST("/reminders/custom", api.CreateCustomReminder)
		auth.GET("/reminders/permission", api.GetPermission)
		auth.POST("/reminders/permission", api.RequestPermission)
		auth.PUT("/reminders/permission", api.SetPermission)
		auth.POST("/reminders/actions/:action", api.HandleReminderAction)
		auth.DELETE("/reminders/:identifier", api.CancelReminder)

		auth.GET("/events", api.ListEvents)
		auth.GET("/events/ws", api.StreamEvents)

		auth.GET("/widget", api.GetWidget)
		auth.GET("/widget/badge.png", api.GetWidgetBadge)

		auth.POST("/intents/add-intake", api.QueueAddIntake)
		auth.GET("/intents/next", api.NextIntent)
	}

	return r
}
