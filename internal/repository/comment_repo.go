package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/model"
)

// CommentRepository 评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id string) error
	ListByPage(ctx context.Context, pageID string, offset, limit int) ([]model.Comment, int64, error)
}

// commentRepo CommentRepository 的 GORM 实现
type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Page").
		Where("comment_id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) Update(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("comment_id = ?", id).
		Delete(&model.Comment{}).Error
}

func (r *commentRepo) ListByPage(ctx context.Context, pageID string, offset, limit int) ([]model.Comment, int64, error) {
	var comments []model.Comment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Comment{}).Where("page_id = ?", pageID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}
