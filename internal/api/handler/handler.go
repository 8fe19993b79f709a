package handler

import "github.com/ardabasoglu/verida-sub002/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Page         *PageHandler
	Comment      *CommentHandler
	File         *FileHandler
	Notification *NotificationHandler
	Activity     *ActivityHandler
	Health       *HealthHandler
}

// NewHandler 创建 Handler 聚合
// 审计日志服务注入到各写路径 Handler 中，按"尽力而为"记录操作。
func NewHandler(svc *service.Service, health *HealthHandler) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, svc.Activity),
		User:         NewUserHandler(svc.User, svc.Activity),
		Page:         NewPageHandler(svc.Page, svc.Activity),
		Comment:      NewCommentHandler(svc.Comment, svc.Activity),
		File:         NewFileHandler(svc.File, svc.Activity),
		Notification: NewNotificationHandler(svc.Notification, svc.Activity),
		Activity:     NewActivityHandler(svc.Activity),
		Health:       health,
	}
}
