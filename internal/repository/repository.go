package repository

import (
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
// 跨表事务由各 Repo 自行通过 db.Transaction 处理（见 token_repo.Consume）。
type Repository struct {
	User         UserRepository
	Page         PageRepository
	Comment      CommentRepository
	File         FileRepository
	Notification NotificationRepository
	ActivityLog  ActivityLogRepository
	Token        TokenRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Page:         NewPageRepo(db),
		Comment:      NewCommentRepo(db),
		File:         NewFileRepo(db),
		Notification: NewNotificationRepo(db),
		ActivityLog:  NewActivityLogRepo(db),
		Token:        NewTokenRepo(db),
	}
}
