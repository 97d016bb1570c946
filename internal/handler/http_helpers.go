package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/drinkwell/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	dateFormat  = "2006-01-02"
	monthFormat = "2006-01"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// respondServiceError 把 service 层错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrIntakeNotFound):
		respondError(c, http.StatusNotFound, "饮水记录不存在")
	case errors.Is(err, service.ErrReminderNotFound):
		respondError(c, http.StatusNotFound, "提醒不存在")
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "未获得通知权限")
	case errors.Is(err, service.ErrStorage):
		respondError(c, http.StatusServiceUnavailable, "数据保存失败，请稍后重试")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// respondWithStorageWarning 在内存修改成功但落盘失败时返回 503，并附带已生效的数据
func respondWithStorageWarning(c *gin.Context, payload gin.H, pending int) {
	payload["error"] = "数据保存失败，修改已暂存，请稍后重试"
	payload["storage_failed"] = true
	payload["pending"] = pending
	c.JSON(http.StatusServiceUnavailable, payload)
}

func validationMessage(err error) string {
	message := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	if message == "" {
		return "参数错误"
	}
	return message
}

// parseDateQuery 按应用时区解析 YYYY-MM-DD，空字符串返回 nil
func parseDateQuery(raw string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateFormat, trimmed, loc)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339, trimmed); err != nil {
			return nil, err
		}
		parsed = parsed.In(loc)
	}
	return &parsed, nil
}
