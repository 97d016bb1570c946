package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const eventPingInterval = 25 * time.Second

// eventUpgrader 在启用登录时只接受同源的 websocket 握手，避免跨站页面借用会话 cookie
func (a *API) eventUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return !a.authEnabled || sameOrigin(r)
		},
	}
}

// sameOrigin 判断 Origin 头与请求 Host 是否一致，没有 Origin 的非浏览器客户端直接放行
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}

// ListEvents 返回序号大于 since 的事件，供客户端轮询
func (a *API) ListEvents(c *gin.Context) {
	var since uint64
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的事件序号")
			return
		}
		since = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"events":   a.app.Events.Since(since),
		"last_seq": a.app.Events.LastSeq(),
	})
}

// StreamEvents 通过 websocket 推送新事件
func (a *API) StreamEvents(c *gin.Context) {
	upgrader := a.eventUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := a.app.Events.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
