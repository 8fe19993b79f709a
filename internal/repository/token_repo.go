package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/model"
)

// TokenRepository 免密登录令牌数据访问接口
type TokenRepository interface {
	Create(ctx context.Context, token *model.VerificationToken) error
	// Consume 取出并删除令牌（一次性消费）；不存在时返回 gorm.ErrRecordNotFound
	Consume(ctx context.Context, token string) (*model.VerificationToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// tokenRepo TokenRepository 的 GORM 实现
type tokenRepo struct {
	db *gorm.DB
}

// NewTokenRepo 创建 TokenRepository 实例
func NewTokenRepo(db *gorm.DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Create(ctx context.Context, token *model.VerificationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepo) Consume(ctx context.Context, token string) (*model.VerificationToken, error) {
	var vt model.VerificationToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&vt).Error; err != nil {
			return err
		}
		return tx.Where("token_id = ?", vt.TokenID).Delete(&model.VerificationToken{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &vt, nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.VerificationToken{})
	return res.RowsAffected, res.Error
}
