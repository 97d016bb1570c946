package handler

import (
	"github.com/drinkwell/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	app         *service.App
	authEnabled bool
}

// NewAPI constructs a handler set around the application context.
// authEnabled 为 false 时接口不要求登录。
func NewAPI(app *service.App, gdb *gorm.DB, authEnabled bool) *API {
	return &API{
		db:          gdb,
		app:         app,
		authEnabled: authEnabled,
	}
}
