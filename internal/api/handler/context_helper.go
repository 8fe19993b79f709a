package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ardabasoglu/verida-sub002/internal/service"
	"github.com/ardabasoglu/verida-sub002/pkg/response"
)

// bindError 统一处理请求绑定失败：校验错误展开为字段级详情，
// 其余绑定错误（JSON 语法、类型不匹配）返回通用 400。
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fe.Field()+": "+fe.Tag()+" 校验失败")
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", strings.Join(parts, "; "))
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// logActivity 写入一条审计日志（尽力而为）。
// 写入失败由 ActivityService 内部记日志，主操作不受影响。
func logActivity(c *gin.Context, svc service.ActivityService, userID, action, resourceType, resourceID string, details map[string]interface{}) {
	entry := &service.ActivityEntry{
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	if resourceType != "" {
		entry.ResourceType = &resourceType
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if ip := c.ClientIP(); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		entry.UserAgent = &ua
	}

	_ = svc.Log(c.Request.Context(), entry)
}
