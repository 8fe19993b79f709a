package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/service"
	"github.com/ardabasoglu/verida-sub002/pkg/response"
)

// 查询参数缺省值。仅在参数完全缺席时生效，
// 显式传入的非法值（如 limit=0）仍会被 Service 层拒绝。
const (
	defaultLogLimit    = 50
	defaultSummaryDays = 30
)

// ActivityHandler 审计日志模块 HTTP 处理器（admin 及以上）
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// GetLogs 日志查询（过滤 + limit/offset 分页，时间倒序）
// GET /api/v1/activity-logs
func (h *ActivityHandler) GetLogs(c *gin.Context) {
	var req dto.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	if c.Query("limit") == "" {
		req.Limit = defaultLogLimit
	}

	result, err := h.activitySvc.GetLogs(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLimit):
			response.BadRequest(c, 34001, "limit 必须在 1-100 之间")
		case errors.Is(err, service.ErrInvalidOffset):
			response.BadRequest(c, 34002, "offset 不能为负数")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// GetStatistics 按操作类型聚合统计
// GET /api/v1/activity-logs/statistics
func (h *ActivityHandler) GetStatistics(c *gin.Context) {
	var req dto.ActivityStatisticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.activitySvc.GetStatistics(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// GetUserActivitySummary 单用户最近 N 天活跃度（本人或 admin 及以上）
// GET /api/v1/activity-logs/users/:id
func (h *ActivityHandler) GetUserActivitySummary(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}
	if c.Param("id") != callerID && !model.RoleAtLeast(callerRole, model.RoleAdmin) {
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	var req dto.UserActivitySummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	if c.Query("days") == "" {
		req.Days = defaultSummaryDays
	}

	result, err := h.activitySvc.GetUserActivitySummary(c.Request.Context(), c.Param("id"), req.Days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDays) {
			response.BadRequest(c, 34003, "days 必须在 1-365 之间")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Export 导出日志为 Excel 工作簿
// GET /api/v1/activity-logs/export
func (h *ActivityHandler) Export(c *gin.Context) {
	var req dto.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	buf, filename, err := h.activitySvc.ExportLogs(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
