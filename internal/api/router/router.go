package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ardabasoglu/verida-sub002/config"
	"github.com/ardabasoglu/verida-sub002/internal/api/handler"
	"github.com/ardabasoglu/verida-sub002/internal/api/middleware"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/pkg/jwt"
	"github.com/ardabasoglu/verida-sub002/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	// 请求体上限 = 文件上传上限 + 1MB 表单余量
	r.Use(middleware.BodyLimit(cfg.Upload.MaxSizeBytes() + 1<<20))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 健康检查（无需认证）
		v1.GET("/health", h.Health.Check)

		// 认证模块（无需认证，登录入口限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/login-link", h.Auth.RequestLoginLink)
			auth.POST("/verify", h.Auth.VerifyLoginToken)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 页面模块
			// 标签
			authorized.GET("/tags", h.Page.Tags)
			authorized.GET("/tags/popular", h.Page.PopularTags)

			pages := authorized.Group("/pages")
			{
				pages.GET("", h.Page.List)
				pages.GET("/:id", h.Page.Get)
				pages.POST("", middleware.RequireRole(model.RoleEditor), h.Page.Create)
				pages.PUT("/:id", middleware.RequireRole(model.RoleEditor), h.Page.Update)       // 作者或 admin（Service 层鉴权）
				pages.DELETE("/:id", middleware.RequireRole(model.RoleEditor), h.Page.Delete)    // 作者或 admin（Service 层鉴权）

				// 页面下的评论与附件
				pages.GET("/:id/comments", h.Comment.ListByPage)
				pages.POST("/:id/comments", h.Comment.Create)
				pages.GET("/:id/files", h.File.ListByPage)
			}

			// 评论模块（跨页面操作）
			comments := authorized.Group("/comments")
			{
				comments.PUT("/:id", h.Comment.Update)    // 评论作者、页面作者或 admin（Service 层鉴权）
				comments.DELETE("/:id", h.Comment.Delete) // 同上
			}

			// 文件模块
			files := authorized.Group("/files")
			{
				files.POST("/upload", middleware.RequireRole(model.RoleEditor), h.File.Upload)
				files.GET("/:id", h.File.Get)
				files.GET("/:id/download", h.File.Download)
				files.DELETE("/:id", h.File.Delete) // 上传者或 admin（Service 层鉴权）
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.GET("/preferences", h.Notification.GetPreferences)
				notifications.PUT("/preferences", h.Notification.UpdatePreferences)
				notifications.PUT("/mark-all-read", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.POST("", middleware.RequireRole(model.RoleAdmin), h.Notification.Create)
			}

			// 用户管理模块（admin 及以上）
			users := authorized.Group("/users")
			users.Use(middleware.RequireRole(model.RoleAdmin))
			{
				users.GET("", h.User.List)
				users.GET("/:id", h.User.Get)
				users.PUT("/:id/role", h.User.UpdateRole) // 授予/回收 system_admin 仅限 system_admin（Service 层鉴权）
				users.DELETE("/:id", middleware.RequireRole(model.RoleSystemAdmin), h.User.Deactivate)
			}

			// 审计日志模块
			// 单用户活跃度允许本人查询，不走 admin 分组（Handler 内鉴权）
			authorized.GET("/activity-logs/users/:id", h.Activity.GetUserActivitySummary)
			activityLogs := authorized.Group("/activity-logs")
			activityLogs.Use(middleware.RequireRole(model.RoleAdmin))
			{
				activityLogs.GET("", h.Activity.GetLogs)
				activityLogs.GET("/statistics", h.Activity.GetStatistics)
				activityLogs.GET("/export", h.Activity.Export)
			}
		}
	}

	return r
}
