package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound   = errors.New("用户不存在")
	ErrSelfRoleChange = errors.New("不能修改自己的角色")
	ErrSelfDeactivate = errors.New("不能停用自己的账号")
	ErrInvalidRole    = errors.New("无效的角色")
)

// UserService 用户业务接口
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	UpdateRole(ctx context.Context, targetID, newRole, callerID, callerRole string) (*dto.UserResponse, error)
	Deactivate(ctx context.Context, targetID, callerID string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filters := &repository.UserListFilters{
		Role:    req.Role,
		Keyword: req.Keyword,
	}

	users, total, err := s.repo.User.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── UpdateRole ──────────────────────

// UpdateRole 分配角色。调用方至少为 admin（由路由守卫保证）；
// 不能修改自己的角色；授予 system_admin 仅限 system_admin 本身。
func (s *userService) UpdateRole(ctx context.Context, targetID, newRole, callerID, callerRole string) (*dto.UserResponse, error) {
	if !model.ValidRole(newRole) {
		return nil, ErrInvalidRole
	}
	if targetID == callerID {
		return nil, ErrSelfRoleChange
	}
	if newRole == model.RoleSystemAdmin && callerRole != model.RoleSystemAdmin {
		return nil, ErrNoPermission
	}

	user, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	// 降级 system_admin 同样仅限 system_admin 操作
	if user.Role == model.RoleSystemAdmin && callerRole != model.RoleSystemAdmin {
		return nil, ErrNoPermission
	}

	oldRole := user.Role
	user.Role = newRole
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户角色失败", zap.String("user_id", targetID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户角色变更",
		zap.String("user_id", targetID),
		zap.String("old_role", oldRole),
		zap.String("new_role", newRole),
		zap.String("operator", callerID))
	return toUserResponse(user), nil
}

// ────────────────────── Deactivate ──────────────────────

// Deactivate 停用账号。停用后该用户无法登录，已发 Token 在黑名单外仍有效至到期。
func (s *userService) Deactivate(ctx context.Context, targetID, callerID string) error {
	if targetID == callerID {
		return ErrSelfDeactivate
	}

	user, err := s.getUser(ctx, targetID)
	if err != nil {
		return err
	}

	user.IsActive = false
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("停用用户失败", zap.String("user_id", targetID), zap.Error(err))
		return err
	}

	s.logger.Info("用户已停用",
		zap.String("user_id", targetID),
		zap.String("operator", callerID))
	return nil
}

// ── 内部辅助方法 ──

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
