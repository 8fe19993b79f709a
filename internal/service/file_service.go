package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/config"
	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
)

// ── 文件模块业务错误 ──

var (
	ErrFileNotFound = errors.New("文件不存在")
	ErrFileTooLarge = errors.New("文件大小超出限制")
	ErrFileType     = errors.New("不支持的文件类型")
)

// FileService 文件业务接口
// 文件内容落盘到本地目录，数据库仅保存元数据。
type FileService interface {
	Upload(ctx context.Context, header *multipart.FileHeader, pageID *string, uploaderID string) (*dto.FileResponse, error)
	Get(ctx context.Context, id string) (*dto.FileResponse, error)
	// Open 打开文件内容用于下载，调用方负责关闭
	Open(ctx context.Context, id string) (io.ReadCloser, *dto.FileResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
	ListByPage(ctx context.Context, pageID string) ([]dto.FileResponse, error)
}

type fileService struct {
	cfg    *config.UploadConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFileService 创建 FileService 实例
func NewFileService(cfg *config.UploadConfig, repo *repository.Repository, logger *zap.Logger) FileService {
	return &fileService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── Upload ──────────────────────

func (s *fileService) Upload(ctx context.Context, header *multipart.FileHeader, pageID *string, uploaderID string) (*dto.FileResponse, error) {
	if header.Size > s.cfg.MaxSizeBytes() {
		return nil, ErrFileTooLarge
	}

	mimeType := header.Header.Get("Content-Type")
	if !s.allowedType(mimeType) {
		return nil, ErrFileType
	}

	// 关联页面时页面必须存在
	if pageID != nil {
		if _, err := s.repo.Page.GetByID(ctx, *pageID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPageNotFound
			}
			return nil, err
		}
	}

	// 存储文件名使用 uuid，避免路径穿越和重名覆盖
	storedName := uuid.New().String() + filepath.Ext(header.Filename)
	storagePath := filepath.Join(s.cfg.Dir, storedName)

	if err := s.saveToDisk(header, storagePath); err != nil {
		s.logger.Error("写入上传文件失败", zap.String("path", storagePath), zap.Error(err))
		return nil, err
	}

	file := &model.File{
		Filename:     storedName,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		SizeBytes:    header.Size,
		StoragePath:  storagePath,
		UploaderID:   uploaderID,
		PageID:       pageID,
	}
	if err := s.repo.File.Create(ctx, file); err != nil {
		s.logger.Error("保存文件元数据失败", zap.Error(err))
		// 元数据落库失败时回收磁盘文件
		if rmErr := os.Remove(storagePath); rmErr != nil {
			s.logger.Warn("清理孤儿文件失败", zap.String("path", storagePath), zap.Error(rmErr))
		}
		return nil, err
	}

	s.logger.Info("文件上传成功",
		zap.String("file_id", file.FileID),
		zap.String("original_name", file.OriginalName),
		zap.Int64("size", file.SizeBytes))
	return toFileResponse(file), nil
}

// ────────────────────── Get / Open ──────────────────────

func (s *fileService) Get(ctx context.Context, id string) (*dto.FileResponse, error) {
	file, err := s.getFile(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFileResponse(file), nil
}

func (s *fileService) Open(ctx context.Context, id string) (io.ReadCloser, *dto.FileResponse, error) {
	file, err := s.getFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(file.StoragePath)
	if err != nil {
		// 元数据存在但磁盘文件丢失，按不存在处理
		if os.IsNotExist(err) {
			s.logger.Error("磁盘文件丢失", zap.String("file_id", id), zap.String("path", file.StoragePath))
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}
	return f, toFileResponse(file), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除文件。仅上传者本人或 admin 及以上角色可删除。
// 先删元数据再删磁盘文件；磁盘删除失败仅记日志。
func (s *fileService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	file, err := s.getFile(ctx, id)
	if err != nil {
		return err
	}

	if file.UploaderID != callerID && !model.RoleAtLeast(callerRole, model.RoleAdmin) {
		return ErrNoPermission
	}

	if err := s.repo.File.Delete(ctx, id); err != nil {
		s.logger.Error("删除文件元数据失败", zap.String("file_id", id), zap.Error(err))
		return err
	}

	if err := os.Remove(file.StoragePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("删除磁盘文件失败", zap.String("path", file.StoragePath), zap.Error(err))
	}
	return nil
}

// ────────────────────── ListByPage ──────────────────────

func (s *fileService) ListByPage(ctx context.Context, pageID string) ([]dto.FileResponse, error) {
	if _, err := s.repo.Page.GetByID(ctx, pageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}

	files, err := s.repo.File.ListByPage(ctx, pageID)
	if err != nil {
		s.logger.Error("查询页面附件失败", zap.String("page_id", pageID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.FileResponse, 0, len(files))
	for i := range files {
		result = append(result, *toFileResponse(&files[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *fileService) getFile(ctx context.Context, id string) (*model.File, error) {
	file, err := s.repo.File.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		s.logger.Error("查询文件失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return file, nil
}

func (s *fileService) allowedType(mimeType string) bool {
	for _, t := range s.cfg.AllowedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

func (s *fileService) saveToDisk(header *multipart.FileHeader, dst string) error {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("创建上传目录失败: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

func toFileResponse(file *model.File) *dto.FileResponse {
	return &dto.FileResponse{
		ID:           file.FileID,
		Filename:     file.Filename,
		OriginalName: file.OriginalName,
		MimeType:     file.MimeType,
		SizeBytes:    file.SizeBytes,
		PageID:       file.PageID,
		UploaderID:   file.UploaderID,
		CreatedAt:    file.CreatedAt.Format(time.RFC3339),
	}
}
