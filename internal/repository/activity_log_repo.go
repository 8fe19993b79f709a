package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/model"
)

// ActivityLogFilters 审计日志过滤条件
type ActivityLogFilters struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
}

// ActionCount 按操作类型聚合的计数
type ActionCount struct {
	Action string
	Count  int64
}

// ActivityLogRepository 审计日志数据访问接口
// 仅插入与查询；日志一经写入不可变更。
type ActivityLogRepository interface {
	Insert(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, filters *ActivityLogFilters, offset, limit int) ([]model.ActivityLog, int64, error)
	CountByAction(ctx context.Context, filters *ActivityLogFilters) ([]ActionCount, error)
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// activityLogRepo ActivityLogRepository 的 GORM 实现
type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Insert(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepo) applyFilters(db *gorm.DB, filters *ActivityLogFilters) *gorm.DB {
	if filters == nil {
		return db
	}
	if filters.UserID != "" {
		db = db.Where("user_id = ?", filters.UserID)
	}
	if filters.Action != "" {
		db = db.Where("action = ?", filters.Action)
	}
	if filters.ResourceType != "" {
		db = db.Where("resource_type = ?", filters.ResourceType)
	}
	if filters.ResourceID != "" {
		db = db.Where("resource_id = ?", filters.ResourceID)
	}
	if filters.StartDate != nil {
		db = db.Where("created_at >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		db = db.Where("created_at <= ?", *filters.EndDate)
	}
	return db
}

func (r *activityLogRepo) List(ctx context.Context, filters *ActivityLogFilters, offset, limit int) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	db := r.applyFilters(r.db.WithContext(ctx).Model(&model.ActivityLog{}), filters)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *activityLogRepo) CountByAction(ctx context.Context, filters *ActivityLogFilters) ([]ActionCount, error) {
	var counts []ActionCount
	db := r.applyFilters(r.db.WithContext(ctx).Model(&model.ActivityLog{}), filters)
	err := db.Select("action, COUNT(*) AS count").
		Group("action").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *activityLogRepo) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ActivityLog{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}
