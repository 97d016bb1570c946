package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerTestLoc = time.FixedZone("UTC+3", 3*60*60)

func setupTestAPI(t *testing.T) (*API, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, handlerTestLoc)
	app, err := service.NewApp(service.Options{
		DB:                     gdb,
		Location:               handlerTestLoc,
		NotificationsAutoGrant: true,
		Now:                    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewApp returned error: %v", err)
	}
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	return NewAPI(app, gdb, false), gdb
}

func performRequest(t *testing.T, handle gin.HandlerFunc, method, target string, payload any, params gin.Params) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params

	handle(c)
	// 没有写入响应体的处理器只调用了 c.Status，需要手动刷新状态码
	c.Writer.WriteHeaderNow()
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}
