package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/drinkwell/internal/service"
	"github.com/gin-gonic/gin"
)

const deepLinkScheme = "drinkwell"

type intentPayload struct {
	Source string `json:"source"`
}

// QueueAddIntake 请求客户端打开添加饮水记录界面
func (a *API) QueueAddIntake(c *gin.Context) {
	var payload intentPayload
	if c.Request.ContentLength > 0 && !bindJSON(c, &payload, "参数错误") {
		return
	}
	source := strings.TrimSpace(payload.Source)
	if source == "" {
		source = "api"
	}

	c.JSON(http.StatusAccepted, gin.H{"intent": a.app.OpenAddIntake(source)})
}

// NextIntent 取出下一个待处理的界面意图，没有时返回 204
func (a *API) NextIntent(c *gin.Context) {
	intent, ok := a.app.Intents.Pop()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent": intent})
}

// OpenDeepLink 处理 drinkwell://add-water 之类的深链接
// 支持 /open?url=drinkwell://add-water 与 /open?target=add-water 两种形式
func (a *API) OpenDeepLink(c *gin.Context) {
	target := strings.TrimSpace(c.Query("target"))
	if raw := strings.TrimSpace(c.Query("url")); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme != deepLinkScheme {
			respondError(c, http.StatusBadRequest, "无效的深链接")
			return
		}
		target = parsed.Host
		if target == "" {
			target = strings.Trim(parsed.Opaque, "/")
		}
	}

	intent, ok := a.resolveDeepLink(target)
	if !ok {
		respondError(c, http.StatusNotFound, "未知的深链接")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"intent": intent})
}

func (a *API) resolveDeepLink(target string) (service.Intent, bool) {
	switch strings.ToLower(target) {
	case "add-water", "add-intake", "addwater":
		return a.app.OpenAddIntake("deeplink"), true
	default:
		return service.Intent{}, false
	}
}
