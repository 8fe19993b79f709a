package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/service"
	"github.com/ardabasoglu/verida-sub002/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc     service.UserService
	activitySvc service.ActivityService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, activitySvc service.ActivityService) *UserHandler {
	return &UserHandler{userSvc: userSvc, activitySvc: activitySvc}
}

// List 用户列表（admin 及以上）
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// Get 查询单个用户
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	result, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 21001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// UpdateRole 分配角色（admin 及以上；授予/回收 system_admin 仅限 system_admin）
// PUT /api/v1/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	targetID := c.Param("id")
	result, err := h.userSvc.UpdateRole(c.Request.Context(), targetID, req.Role, callerID, callerRole)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 21001, "用户不存在")
		case errors.Is(err, service.ErrSelfRoleChange):
			response.BadRequest(c, 21002, "不能修改自己的角色")
		case errors.Is(err, service.ErrInvalidRole):
			response.BadRequest(c, 10001, "无效的角色")
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, callerID, model.ActionUserRoleChange, "user", targetID,
		map[string]interface{}{"new_role": req.Role})
	response.OK(c, result)
}

// Deactivate 停用账号（system_admin；软删除，保留历史数据）
// DELETE /api/v1/users/:id
func (h *UserHandler) Deactivate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	targetID := c.Param("id")
	if err := h.userSvc.Deactivate(c.Request.Context(), targetID, callerID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 21001, "用户不存在")
		case errors.Is(err, service.ErrSelfDeactivate):
			response.BadRequest(c, 21003, "不能停用自己的账号")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, callerID, model.ActionUserDeactivate, "user", targetID, nil)
	response.OK(c, nil)
}
