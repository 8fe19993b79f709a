package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/service"
	"github.com/ardabasoglu/verida-sub002/pkg/response"
)

// CommentHandler 评论模块 HTTP 处理器
type CommentHandler struct {
	commentSvc  service.CommentService
	activitySvc service.ActivityService
}

// NewCommentHandler 创建 CommentHandler
func NewCommentHandler(commentSvc service.CommentService, activitySvc service.ActivityService) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc, activitySvc: activitySvc}
}

// Create 发表评论
// POST /api/v1/pages/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pageID := c.Param("id")
	result, err := h.commentSvc.Create(c.Request.Context(), pageID, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			response.NotFound(c, 30001, "页面不存在")
			return
		}
		response.InternalError(c)
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionCommentCreate, "comment", result.ID,
		map[string]interface{}{"page_id": pageID})
	response.Created(c, result)
}

// ListByPage 页面评论列表（时间正序）
// GET /api/v1/pages/:id/comments
func (h *CommentHandler) ListByPage(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	comments, total, err := h.commentSvc.ListByPage(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			response.NotFound(c, 30001, "页面不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OKPage(c, comments, total, req.GetPage(), req.GetPageSize())
}

// Update 编辑评论（评论作者、页面作者或 admin 及以上）
// PUT /api/v1/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	commentID := c.Param("id")
	result, err := h.commentSvc.Update(c.Request.Context(), commentID, &req, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			response.NotFound(c, 31001, "评论不存在")
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionCommentUpdate, "comment", commentID, nil)
	response.OK(c, result)
}

// Delete 删除评论（评论作者、页面作者或 admin 及以上）
// DELETE /api/v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	commentID := c.Param("id")
	if err := h.commentSvc.Delete(c.Request.Context(), commentID, userID, role); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			response.NotFound(c, 31001, "评论不存在")
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionCommentDelete, "comment", commentID, nil)
	response.OK(c, nil)
}
