package handler

import (
	"docshare/internal/config"
	"docshare/internal/infrastructure/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, store *storage.LocalStore, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, store, cfg)

	api := r.Group("/api/v1")

	// 无需认证的接口
	api.POST("/users/register", h.Register)
	api.GET("/documents", h.ListDocuments)
	api.GET("/documents/:id", h.GetDocument)
	api.GET("/documents/:id/comments", h.ListComments)
	api.GET("/users/:id", h.GetProfile)
	api.GET("/users/:id/followers", h.ListFollowers)
	api.GET("/users/:id/following", h.ListFollowing)

	// 登录用户接口
	auth := api.Group("")
	auth.Use(AuthMiddleware(cfg.Auth.JWTSecret))
	{
		auth.PUT("/users/me", h.UpdateProfile)
		auth.POST("/users/:id/follow", h.FollowUser)
		auth.DELETE("/users/:id/follow", h.UnfollowUser)

		auth.POST("/documents", h.UploadDocument)
		auth.GET("/documents/mine", h.ListMyDocuments)
		auth.PUT("/documents/:id", h.UpdateDocument)
		auth.DELETE("/documents/:id", h.DeleteDocument)
		auth.POST("/documents/:id/download", h.DownloadDocument)
		auth.POST("/documents/:id/comments", h.AddComment)
		auth.POST("/documents/:id/reports", h.CreateReport)
		auth.POST("/documents/:id/bookmark", h.AddBookmark)
		auth.DELETE("/documents/:id/bookmark", h.RemoveBookmark)

		auth.DELETE("/comments/:id", h.DeleteComment)

		auth.GET("/credits/balance", h.GetBalance)
		auth.GET("/credits/transactions", h.ListTransactions)
		auth.POST("/credits/purchase", h.PurchaseCredits)

		auth.GET("/downloads", h.ListMyDownloads)
		auth.GET("/bookmarks", h.ListBookmarks)
	}

	// 审核员接口
	mod := api.Group("")
	mod.Use(AuthMiddleware(cfg.Auth.JWTSecret), RequireModerator())
	{
		mod.GET("/reports", h.ListReports)
		mod.GET("/reports/:id", h.GetReport)
		mod.POST("/reports/:id/transition", h.TransitionReport)
		mod.POST("/admin/documents/:id/status", h.TransitionDocument)
		mod.GET("/admin/documents", h.ListAllDocuments)
	}

	// 管理员接口
	admin := api.Group("/admin")
	admin.Use(AuthMiddleware(cfg.Auth.JWTSecret), RequireAdmin())
	{
		admin.GET("/dashboard", h.GetDashboard)
		admin.GET("/activity", h.GetRecentActivity)
		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:id/role", h.UpdateUserRole)
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
