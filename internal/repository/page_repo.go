package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/model"
)

// PageListFilters 页面列表过滤条件
// Query 为空表示不做文本过滤。
type PageListFilters struct {
	Query         string
	PageType      string
	Tag           string
	AuthorID      string
	PublishedOnly bool
}

// TagCount 标签使用统计
type TagCount struct {
	Tag   string
	Count int64
}

// PageRepository 页面数据访问接口
type PageRepository interface {
	Create(ctx context.Context, page *model.Page) error
	GetByID(ctx context.Context, id string) (*model.Page, error)
	Update(ctx context.Context, page *model.Page) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters *PageListFilters, offset, limit int, sortBy, sortOrder string) ([]model.Page, int64, error)
	TagCounts(ctx context.Context, limit int) ([]TagCount, error)
}

// pageRepo PageRepository 的 GORM 实现
type pageRepo struct {
	db *gorm.DB
}

// NewPageRepo 创建 PageRepository 实例
func NewPageRepo(db *gorm.DB) PageRepository {
	return &pageRepo{db: db}
}

func (r *pageRepo) Create(ctx context.Context, page *model.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *pageRepo) GetByID(ctx context.Context, id string) (*model.Page, error) {
	var page model.Page
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("page_id = ?", id).
		First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepo) Update(ctx context.Context, page *model.Page) error {
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *pageRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("page_id = ?", id).
		Delete(&model.Page{}).Error
}

// 允许的排序字段白名单（防 SQL 注入；排序字段来自闭集 DTO，这里再兜底一次）
var pageSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

func (r *pageRepo) List(ctx context.Context, filters *PageListFilters, offset, limit int, sortBy, sortOrder string) ([]model.Page, int64, error) {
	var pages []model.Page
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Page{})
	if filters != nil {
		if filters.Query != "" {
			q := "%" + filters.Query + "%"
			db = db.Where("title ILIKE ? OR content ILIKE ?", q, q)
		}
		if filters.PageType != "" {
			db = db.Where("page_type = ?", filters.PageType)
		}
		if filters.Tag != "" {
			db = db.Where("? = ANY(tags)", filters.Tag)
		}
		if filters.AuthorID != "" {
			db = db.Where("author_id = ?", filters.AuthorID)
		}
		if filters.PublishedOnly {
			db = db.Where("published = TRUE")
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if !pageSortColumns[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	if err := db.Preload("Author").
		Offset(offset).Limit(limit).
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Find(&pages).Error; err != nil {
		return nil, 0, err
	}

	return pages, total, nil
}

// TagCounts 统计已发布页面的标签使用次数，按次数降序。
// limit <= 0 时返回全部标签。
func (r *pageRepo) TagCounts(ctx context.Context, limit int) ([]TagCount, error) {
	var counts []TagCount

	db := r.db.WithContext(ctx).
		Table("pages").
		Select("unnest(tags) AS tag, COUNT(*) AS count").
		Where("deleted_at IS NULL AND published = TRUE").
		Group("tag").
		Order("count DESC, tag ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	if err := db.Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
