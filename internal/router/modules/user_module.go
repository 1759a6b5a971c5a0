package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/profile-hub/internal/container"
	handlers "github.com/oksasatya/profile-hub/internal/interface/http"
	"github.com/oksasatya/profile-hub/internal/interface/middleware"
)

// UserModule wires the profile CRUD, search, QR and avatar routes.
// Reads: GET /api/users, /api/users/search, /api/users/:id, /api/users/:id/qr
// Writes: POST /api/users, /api/users/import, /api/users/:id/avatar,
// PUT/DELETE /api/users/:id
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	allowInternal := middleware.AllowPrivateIP()

	readLimiter := middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), allowInternal)
	searchLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath(), allowInternal)
	writeLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), allowInternal)

	users := rg.Group("/users")
	{
		users.GET("", readLimiter, m.Handler.List)
		users.GET("/search", searchLimiter, m.Handler.Search)
		users.GET("/:id", readLimiter, m.Handler.Get)
		users.GET("/:id/qr", readLimiter, m.Handler.ExportQR)

		users.POST("", writeLimiter, m.Handler.Create)
		users.POST("/import", writeLimiter, m.Handler.ImportQR)
		users.POST("/:id/avatar", writeLimiter, m.Handler.UploadAvatar)
		users.PUT("/:id", writeLimiter, m.Handler.Update)
		users.DELETE("/:id", writeLimiter, m.Handler.Delete)
	}
}
