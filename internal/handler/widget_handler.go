package handler

import (
	"net/http"

	"github.com/drinkwell/internal/view"
	"github.com/gin-gonic/gin"
)

// GetWidget 返回小组件快照
func (a *API) GetWidget(c *gin.Context) {
	snapshot, err := a.app.WidgetView(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "获取小组件数据失败")
		return
	}

	system := a.app.Preferences.Get().UnitSystem()
	c.JSON(http.StatusOK, gin.H{
		"widget":            snapshot,
		"display_intake":    system.FormatVolume(snapshot.TodaysIntake),
		"display_goal":      system.FormatVolume(snapshot.DailyGoal),
		"display_remaining": system.FormatVolume(snapshot.Remaining),
	})
}

// GetWidgetBadge 以 PNG 渲染小组件进度徽章
func (a *API) GetWidgetBadge(c *gin.Context) {
	snapshot, err := a.app.WidgetView(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "获取小组件数据失败")
		return
	}

	system := a.app.Preferences.Get().UnitSystem()
	data, err := view.RenderWidgetBadge(view.WidgetBadge{
		Progress: snapshot.Progress,
		Intake:   system.FormatVolume(snapshot.TodaysIntake),
		Goal:     system.FormatVolume(snapshot.DailyGoal),
		Dark:     a.app.Preferences.Get().IsDarkMode,
	})
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "渲染小组件失败")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}
