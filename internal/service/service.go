package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ardabasoglu/verida-sub002/config"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
	"github.com/ardabasoglu/verida-sub002/pkg/jwt"
	"github.com/ardabasoglu/verida-sub002/pkg/mail"
	"github.com/ardabasoglu/verida-sub002/pkg/redis"
)

// QueryCache 页面查询缓存接口
// 由 pkg/redis.Client 实现；缓存不可用时传 nil，各 Service 降级为直查数据库。
type QueryCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// TokenBlacklist JWT 黑名单接口（由 pkg/redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// MailSender 邮件发送接口（由 pkg/mail.Sender 实现）
type MailSender interface {
	Enabled() bool
	Send(to, subject, body string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Page         PageService
	Comment      CommentService
	File         FileService
	Notification NotificationService
	Activity     ActivityService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	mailer *mail.Sender,
	logger *zap.Logger,
) *Service {
	// *redis.Client 为 nil 时不能直接赋给接口，否则接口非 nil 导致空指针调用
	var cache QueryCache
	var blacklist TokenBlacklist
	if rdb != nil {
		cache = rdb
		blacklist = rdb
	}
	var sender MailSender
	if mailer != nil {
		sender = mailer
	}

	notification := NewNotificationService(repo, sender, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, sender, logger),
		User:         NewUserService(repo, logger),
		Page:         NewPageService(repo, cache, notification, logger),
		Comment:      NewCommentService(repo, logger),
		File:         NewFileService(&cfg.Upload, repo, logger),
		Notification: notification,
		Activity:     NewActivityService(repo, logger),
	}
}
