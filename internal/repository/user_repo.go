package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/model"
)

// UserListFilters 用户列表过滤条件
type UserListFilters struct {
	Role    string
	Keyword string
}

// FanoutTarget 通知扇出候选接收者（含偏好开关）
type FanoutTarget struct {
	UserID  string
	Name    string
	Email   string
	InApp   bool
	EmailOn bool
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Count(ctx context.Context) (int64, error)
	ListWithFilters(ctx context.Context, filters *UserListFilters, offset, limit int) ([]model.User, int64, error)
	ListFanoutTargets(ctx context.Context, excludeUserID string) ([]FanoutTarget, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error
	return total, err
}

func (r *userRepo) ListWithFilters(ctx context.Context, filters *UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filters != nil {
		if filters.Role != "" {
			db = db.Where("role = ?", filters.Role)
		}
		if filters.Keyword != "" {
			kw := "%" + filters.Keyword + "%"
			db = db.Where("name ILIKE ? OR email ILIKE ?", kw, kw)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ListFanoutTargets 枚举所有可作为通知接收者的活跃用户（排除触发者本人）。
// 没有偏好记录的用户按默认值处理（全部开启）。
func (r *userRepo) ListFanoutTargets(ctx context.Context, excludeUserID string) ([]FanoutTarget, error) {
	var targets []FanoutTarget
	err := r.db.WithContext(ctx).
		Table("users u").
		Select(`u.user_id,
			u.name,
			u.email,
			COALESCE(p.in_app_notifications, TRUE) AS in_app,
			COALESCE(p.email_notifications, TRUE)  AS email_on`).
		Joins("LEFT JOIN notification_preferences p ON p.user_id = u.user_id").
		Where("u.is_active = TRUE AND u.deleted_at IS NULL AND u.user_id <> ?", excludeUserID).
		Scan(&targets).Error
	if err != nil {
		return nil, err
	}
	return targets, nil
}
