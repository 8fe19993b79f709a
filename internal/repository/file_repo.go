package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/model"
)

// FileRepository 文件元数据访问接口
type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	GetByID(ctx context.Context, id string) (*model.File, error)
	Delete(ctx context.Context, id string) error
	ListByPage(ctx context.Context, pageID string) ([]model.File, error)
}

// fileRepo FileRepository 的 GORM 实现
type fileRepo struct {
	db *gorm.DB
}

// NewFileRepo 创建 FileRepository 实例
func NewFileRepo(db *gorm.DB) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, file *model.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Where("file_id = ?", id).
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *fileRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("file_id = ?", id).
		Delete(&model.File{}).Error
}

func (r *fileRepo) ListByPage(ctx context.Context, pageID string) ([]model.File, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("created_at ASC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}
