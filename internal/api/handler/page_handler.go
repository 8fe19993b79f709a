package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/service"
	"github.com/ardabasoglu/verida-sub002/pkg/response"
)

// PageHandler 页面模块 HTTP 处理器
type PageHandler struct {
	pageSvc     service.PageService
	activitySvc service.ActivityService
}

// NewPageHandler 创建 PageHandler
func NewPageHandler(pageSvc service.PageService, activitySvc service.ActivityService) *PageHandler {
	return &PageHandler{pageSvc: pageSvc, activitySvc: activitySvc}
}

// Create 创建页面（editor 及以上）
// POST /api/v1/pages
func (h *PageHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.pageSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionPageCreate, "page", result.ID,
		map[string]interface{}{"page_type": result.PageType, "title": result.Title})
	response.Created(c, result)
}

// Get 查询单个页面
// GET /api/v1/pages/:id
func (h *PageHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	result, err := h.pageSvc.Get(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			response.NotFound(c, 30001, "页面不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Update 更新页面（作者本人或 admin 及以上）
// PUT /api/v1/pages/:id
func (h *PageHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pageID := c.Param("id")
	result, err := h.pageSvc.Update(c.Request.Context(), pageID, &req, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageNotFound):
			response.NotFound(c, 30001, "页面不存在")
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionPageUpdate, "page", pageID, nil)
	response.OK(c, result)
}

// Delete 删除页面（作者本人或 admin 及以上）
// DELETE /api/v1/pages/:id
func (h *PageHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	pageID := c.Param("id")
	if err := h.pageSvc.Delete(c.Request.Context(), pageID, userID, role); err != nil {
		switch {
		case errors.Is(err, service.ErrPageNotFound):
			response.NotFound(c, 30001, "页面不存在")
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionPageDelete, "page", pageID, nil)
	response.OK(c, nil)
}

// List 页面列表（过滤 + 分页 + 排序，已发布页面）
// GET /api/v1/pages
func (h *PageHandler) List(c *gin.Context) {
	var req dto.PageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	pages, total, err := h.pageSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, pages, total, req.GetPage(), req.GetPageSize())
}

// Tags 全量标签及使用次数
// GET /api/v1/tags
func (h *PageHandler) Tags(c *gin.Context) {
	result, err := h.pageSvc.Tags(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// PopularTags 热门标签 Top-N
// GET /api/v1/tags/popular
func (h *PageHandler) PopularTags(c *gin.Context) {
	var req dto.PopularTagsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.pageSvc.PopularTags(c.Request.Context(), req.GetLimit())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
