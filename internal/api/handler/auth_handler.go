package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/service"
	"github.com/ardabasoglu/verida-sub002/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc     service.AuthService
	activitySvc service.ActivityService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, activitySvc service.ActivityService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, activitySvc: activitySvc}
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.Error(c, http.StatusConflict, 20001, "邮箱已被注册")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, 20002, "邮箱或密码错误")
		case errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, 20003, "账号已被停用")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, result.User.ID, model.ActionLogin, "", "", nil)
	response.OK(c, result)
}

// RequestLoginLink 申请免密登录链接
// POST /api/v1/auth/login-link
// 无论邮箱是否注册都返回成功，不泄露注册状态
func (h *AuthHandler) RequestLoginLink(c *gin.Context) {
	var req dto.LoginLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.authSvc.RequestLoginLink(c.Request.Context(), req.Email); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"message": "如果该邮箱已注册，登录链接将发送至邮箱"})
}

// VerifyLoginToken 验证免密登录令牌
// POST /api/v1/auth/verify
func (h *AuthHandler) VerifyLoginToken(c *gin.Context) {
	var req dto.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.VerifyLoginToken(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			response.Unauthorized(c, 20004, "无效或已过期的登录链接")
		case errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, 20003, "账号已被停用")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, result.User.ID, model.ActionLogin, "", "", map[string]interface{}{"method": "login_link"})
	response.OK(c, result)
}

// RefreshToken 刷新 Token 对
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			response.Unauthorized(c, 20004, "Refresh Token 无效或已过期")
		case errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, 20003, "账号已被停用")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Logout 用户登出（当前 Access Token 拉黑至自然过期）
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	token := c.GetString("access_token")
	if token == "" {
		// 中间件未注入时从请求头兜底提取
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 {
			token = parts[1]
		}
	}

	if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
		response.InternalError(c)
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionLogout, "", "", nil)
	response.OK(c, nil)
}

// Me 查询当前登录用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
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

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			response.BadRequest(c, 20005, "原密码错误")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 21001, "用户不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}
