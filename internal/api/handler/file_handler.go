package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/service"
	"github.com/ardabasoglu/verida-sub002/pkg/response"
)

// FileHandler 文件模块 HTTP 处理器
type FileHandler struct {
	fileSvc     service.FileService
	activitySvc service.ActivityService
}

// NewFileHandler 创建 FileHandler
func NewFileHandler(fileSvc service.FileService, activitySvc service.ActivityService) *FileHandler {
	return &FileHandler{fileSvc: fileSvc, activitySvc: activitySvc}
}

// Upload 上传文件（editor 及以上）
// POST /api/v1/files/upload
// multipart 表单: file（必填）, page_id（可选，关联页面）
func (h *FileHandler) Upload(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}

	var pageID *string
	if v := c.PostForm("page_id"); v != "" {
		pageID = &v
	}

	result, err := h.fileSvc.Upload(c.Request.Context(), header, pageID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, 32001, "文件大小超出限制")
		case errors.Is(err, service.ErrFileType):
			response.BadRequest(c, 32002, "不支持的文件类型")
		case errors.Is(err, service.ErrPageNotFound):
			response.NotFound(c, 30001, "页面不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionFileUpload, "file", result.ID,
		map[string]interface{}{"original_name": result.OriginalName, "size_bytes": result.SizeBytes})
	response.Created(c, result)
}

// Get 查询文件元数据
// GET /api/v1/files/:id
func (h *FileHandler) Get(c *gin.Context) {
	result, err := h.fileSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			response.NotFound(c, 32003, "文件不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Download 下载文件内容
// GET /api/v1/files/:id/download
func (h *FileHandler) Download(c *gin.Context) {
	rc, meta, err := h.fileSvc.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			response.NotFound(c, 32003, "文件不存在")
			return
		}
		response.InternalError(c)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.OriginalName))
	c.Header("Content-Type", meta.MimeType)
	c.Header("Content-Length", fmt.Sprintf("%d", meta.SizeBytes))
	c.DataFromReader(http.StatusOK, meta.SizeBytes, meta.MimeType, rc, nil)
}

// Delete 删除文件（上传者本人或 admin 及以上）
// DELETE /api/v1/files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	fileID := c.Param("id")
	if err := h.fileSvc.Delete(c.Request.Context(), fileID, userID, role); err != nil {
		switch {
		case errors.Is(err, service.ErrFileNotFound):
			response.NotFound(c, 32003, "文件不存在")
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权限访问")
		default:
			response.InternalError(c)
		}
		return
	}

	logActivity(c, h.activitySvc, userID, model.ActionFileDelete, "file", fileID, nil)
	response.OK(c, nil)
}

// ListByPage 页面附件列表
// GET /api/v1/pages/:id/files
func (h *FileHandler) ListByPage(c *gin.Context) {
	result, err := h.fileSvc.ListByPage(c.Request.Context(), c.Param("id"))
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
