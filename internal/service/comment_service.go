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

// ── 评论模块业务错误 ──

var ErrCommentNotFound = errors.New("评论不存在")

// CommentService 评论业务接口
type CommentService interface {
	Create(ctx context.Context, pageID, userID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	Update(ctx context.Context, commentID string, req *dto.UpdateCommentRequest, callerID, callerRole string) (*dto.CommentResponse, error)
	Delete(ctx context.Context, commentID, callerID, callerRole string) error
	ListByPage(ctx context.Context, pageID string, req *dto.PaginationRequest) ([]dto.CommentResponse, int64, error)
}

type commentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo *repository.Repository, logger *zap.Logger) CommentService {
	return &commentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *commentService) Create(ctx context.Context, pageID, userID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	// 目标页面必须存在
	if _, err := s.repo.Page.GetByID(ctx, pageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}

	comment := &model.Comment{
		Body:   req.Body,
		UserID: userID,
		PageID: pageID,
	}
	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		s.logger.Error("创建评论失败", zap.String("page_id", pageID), zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Comment.GetByID(ctx, comment.CommentID)
	if err != nil {
		return nil, err
	}
	return toCommentResponse(created), nil
}

// ────────────────────── Update ──────────────────────

func (s *commentService) Update(ctx context.Context, commentID string, req *dto.UpdateCommentRequest, callerID, callerRole string) (*dto.CommentResponse, error) {
	comment, err := s.repo.Comment.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		s.logger.Error("查询评论失败", zap.String("id", commentID), zap.Error(err))
		return nil, err
	}

	if !canModifyComment(comment, callerID, callerRole) {
		return nil, ErrNoPermission
	}

	comment.Body = req.Body
	if err := s.repo.Comment.Update(ctx, comment); err != nil {
		s.logger.Error("更新评论失败", zap.String("id", commentID), zap.Error(err))
		return nil, err
	}

	return toCommentResponse(comment), nil
}

// ────────────────────── Delete ──────────────────────

func (s *commentService) Delete(ctx context.Context, commentID, callerID, callerRole string) error {
	comment, err := s.repo.Comment.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		s.logger.Error("查询评论失败", zap.String("id", commentID), zap.Error(err))
		return err
	}

	if !canModifyComment(comment, callerID, callerRole) {
		return ErrNoPermission
	}

	if err := s.repo.Comment.Delete(ctx, commentID); err != nil {
		s.logger.Error("删除评论失败", zap.String("id", commentID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ListByPage ──────────────────────

func (s *commentService) ListByPage(ctx context.Context, pageID string, req *dto.PaginationRequest) ([]dto.CommentResponse, int64, error) {
	if _, err := s.repo.Page.GetByID(ctx, pageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrPageNotFound
		}
		return nil, 0, err
	}

	comments, total, err := s.repo.Comment.ListByPage(ctx, pageID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询评论列表失败", zap.String("page_id", pageID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, *toCommentResponse(&comments[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

// canModifyComment 评论作者本人、所在页面作者、以及 admin 及以上角色可编辑/删除
func canModifyComment(comment *model.Comment, callerID, callerRole string) bool {
	if comment.UserID == callerID {
		return true
	}
	if comment.Page != nil && comment.Page.AuthorID == callerID {
		return true
	}
	return model.RoleAtLeast(callerRole, model.RoleAdmin)
}

func toCommentResponse(comment *model.Comment) *dto.CommentResponse {
	var user *dto.UserBrief
	if comment.User != nil {
		user = &dto.UserBrief{
			ID:   comment.User.UserID,
			Name: comment.User.Name,
		}
	}
	return &dto.CommentResponse{
		ID:        comment.CommentID,
		Body:      comment.Body,
		PageID:    comment.PageID,
		User:      user,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
		UpdatedAt: comment.UpdatedAt.Format(time.RFC3339),
	}
}
