package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
)

// ── 页面模块业务错误 ──

var (
	ErrPageNotFound = errors.New("页面不存在")
	ErrNoPermission = errors.New("无权操作")
)

// 缓存键前缀与兜底 TTL
// 正确性由写路径显式失效保证，TTL 仅防止失效遗漏后脏数据永久驻留。
const (
	pageCachePrefix = "pages:"
	pageCacheTTL    = 5 * time.Minute
)

// PageService 页面业务接口
type PageService interface {
	Create(ctx context.Context, req *dto.CreatePageRequest, authorID string) (*dto.PageResponse, error)
	Get(ctx context.Context, id, callerID, callerRole string) (*dto.PageResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdatePageRequest, callerID, callerRole string) (*dto.PageResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
	List(ctx context.Context, req *dto.PageListRequest) ([]dto.PageResponse, int64, error)
	Tags(ctx context.Context) ([]dto.TagCountResponse, error)
	PopularTags(ctx context.Context, limit int) ([]dto.TagCountResponse, error)
}

type pageService struct {
	repo         *repository.Repository
	cache        QueryCache
	notification NotificationService
	logger       *zap.Logger
}

// NewPageService 创建 PageService 实例
func NewPageService(repo *repository.Repository, cache QueryCache, notification NotificationService, logger *zap.Logger) PageService {
	return &pageService{repo: repo, cache: cache, notification: notification, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 创建页面，发布即生效。
// 主写入提交后依次执行缓存失效与通知扇出，两者均尽力而为，失败不回滚页面。
func (s *pageService) Create(ctx context.Context, req *dto.CreatePageRequest, authorID string) (*dto.PageResponse, error) {
	page := &model.Page{
		Title:     req.Title,
		Content:   req.Content,
		PageType:  req.PageType,
		Tags:      model.StringArray(req.Tags),
		Published: true,
		AuthorID:  authorID,
	}

	if err := s.repo.Page.Create(ctx, page); err != nil {
		s.logger.Error("创建页面失败", zap.Error(err))
		return nil, err
	}

	s.invalidateCache(ctx)

	// 公告/警示类型触发扇出；失败仅记日志，不影响创建结果
	switch page.PageType {
	case model.PageTypeAnnouncement:
		if err := s.notification.NotifyNewAnnouncement(ctx, page); err != nil {
			s.logger.Warn("公告扇出失败", zap.String("page_id", page.PageID), zap.Error(err))
		}
	case model.PageTypeWarning:
		if err := s.notification.NotifyNewWarning(ctx, page); err != nil {
			s.logger.Warn("警示扇出失败", zap.String("page_id", page.PageID), zap.Error(err))
		}
	}

	created, err := s.repo.Page.GetByID(ctx, page.PageID)
	if err != nil {
		return nil, err
	}
	return toPageResponse(created), nil
}

// ────────────────────── Get ──────────────────────

// Get 读取单个页面。未发布页面仅作者本人和 admin 以上可见，其余按不存在处理。
func (s *pageService) Get(ctx context.Context, id, callerID, callerRole string) (*dto.PageResponse, error) {
	page, err := s.repo.Page.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		s.logger.Error("查询页面失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !page.Published && page.AuthorID != callerID && !model.RoleAtLeast(callerRole, model.RoleAdmin) {
		return nil, ErrPageNotFound
	}

	return toPageResponse(page), nil
}

// ────────────────────── Update ──────────────────────

func (s *pageService) Update(ctx context.Context, id string, req *dto.UpdatePageRequest, callerID, callerRole string) (*dto.PageResponse, error) {
	page, err := s.repo.Page.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		s.logger.Error("查询页面失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if page.AuthorID != callerID && !model.RoleAtLeast(callerRole, model.RoleAdmin) {
		return nil, ErrNoPermission
	}

	// 应用更新字段（仅更新非 nil 字段）
	if req.Title != nil {
		page.Title = *req.Title
	}
	if req.Content != nil {
		page.Content = *req.Content
	}
	if req.PageType != nil {
		page.PageType = *req.PageType
	}
	if req.Tags != nil {
		page.Tags = model.StringArray(*req.Tags)
	}
	if req.Published != nil {
		page.Published = *req.Published
	}

	if err := s.repo.Page.Update(ctx, page); err != nil {
		s.logger.Error("更新页面失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.invalidateCache(ctx)

	updated, err := s.repo.Page.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPageResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *pageService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	page, err := s.repo.Page.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPageNotFound
		}
		s.logger.Error("查询页面失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if page.AuthorID != callerID && !model.RoleAtLeast(callerRole, model.RoleAdmin) {
		return ErrNoPermission
	}

	if err := s.repo.Page.Delete(ctx, id); err != nil {
		s.logger.Error("删除页面失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.invalidateCache(ctx)
	return nil
}

// ────────────────────── List ──────────────────────

// cachedPageList 列表查询的缓存载荷
type cachedPageList struct {
	Pages []dto.PageResponse `json:"pages"`
	Total int64              `json:"total"`
}

func (s *pageService) List(ctx context.Context, req *dto.PageListRequest) ([]dto.PageResponse, int64, error) {
	key := pageListCacheKey(req)

	if s.cache != nil {
		var cached cachedPageList
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取页面缓存失败", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached.Pages, cached.Total, nil
		}
	}

	filters := &repository.PageListFilters{
		Query:         req.Query,
		PageType:      req.PageType,
		Tag:           req.Tag,
		AuthorID:      req.AuthorID,
		PublishedOnly: true,
	}

	pages, total, err := s.repo.Page.List(ctx, filters, req.GetOffset(), req.GetPageSize(), req.GetSortBy(), req.GetSortOrder())
	if err != nil {
		s.logger.Error("查询页面列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PageResponse, 0, len(pages))
	for i := range pages {
		result = append(result, *toPageResponse(&pages[i]))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, &cachedPageList{Pages: result, Total: total}, pageCacheTTL); err != nil {
			s.logger.Warn("写入页面缓存失败", zap.String("key", key), zap.Error(err))
		}
	}

	return result, total, nil
}

// ────────────────────── Tags / PopularTags ──────────────────────

func (s *pageService) Tags(ctx context.Context) ([]dto.TagCountResponse, error) {
	return s.tagCounts(ctx, pageCachePrefix+"tags", 0)
}

func (s *pageService) PopularTags(ctx context.Context, limit int) ([]dto.TagCountResponse, error) {
	key := fmt.Sprintf("%stags:popular:%d", pageCachePrefix, limit)
	return s.tagCounts(ctx, key, limit)
}

func (s *pageService) tagCounts(ctx context.Context, key string, limit int) ([]dto.TagCountResponse, error) {
	if s.cache != nil {
		var cached []dto.TagCountResponse
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取标签缓存失败", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	counts, err := s.repo.Page.TagCounts(ctx, limit)
	if err != nil {
		s.logger.Error("统计标签失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TagCountResponse, 0, len(counts))
	for _, c := range counts {
		result = append(result, dto.TagCountResponse{Tag: c.Tag, Count: c.Count})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, pageCacheTTL); err != nil {
			s.logger.Warn("写入标签缓存失败", zap.String("key", key), zap.Error(err))
		}
	}

	return result, nil
}

// ── 内部辅助方法 ──

// invalidateCache 失效全部页面相关缓存（列表 + 标签聚合）。
// 每条写路径（创建/更新/删除）都必须调用；失败仅记日志，TTL 兜底。
func (s *pageService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, pageCachePrefix); err != nil {
		s.logger.Warn("页面缓存失效失败", zap.Error(err))
	}
}

// pageListCacheKey 将查询参数归一化为缓存键
// 所有参数（含默认值）都显式进入键，保证相同语义的查询命中同一条目。
func pageListCacheKey(req *dto.PageListRequest) string {
	return fmt.Sprintf("%slist:q=%s&type=%s&tag=%s&author=%s&page=%d&size=%d&sort=%s:%s",
		pageCachePrefix,
		req.Query, req.PageType, req.Tag, req.AuthorID,
		req.GetPage(), req.GetPageSize(),
		req.GetSortBy(), req.GetSortOrder(),
	)
}

func toPageResponse(page *model.Page) *dto.PageResponse {
	var author *dto.UserBrief
	if page.Author != nil {
		author = &dto.UserBrief{
			ID:   page.Author.UserID,
			Name: page.Author.Name,
		}
	}

	tags := []string{}
	if page.Tags != nil {
		tags = []string(page.Tags)
	}

	return &dto.PageResponse{
		ID:        page.PageID,
		Title:     page.Title,
		Content:   page.Content,
		PageType:  page.PageType,
		Tags:      tags,
		Published: page.Published,
		Author:    author,
		CreatedAt: page.CreatedAt.Format(time.RFC3339),
		UpdatedAt: page.UpdatedAt.Format(time.RFC3339),
	}
}
