package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
)

func setupTestPageService() (PageService, *mockUserRepo, *mockNotificationRepo, *mockQueryCache) {
	repo, users, _, notifications, _, _ := newTestRepository()
	cache := newMockQueryCache()
	notificationSvc := NewNotificationService(repo, &mockMailSender{enabled: false}, zap.NewNop())
	svc := NewPageService(repo, cache, notificationSvc, zap.NewNop())
	return svc, users, notifications, cache
}

func createTestPage(t *testing.T, svc PageService, authorID, pageType string) *dto.PageResponse {
	t.Helper()
	result, err := svc.Create(context.Background(), &dto.CreatePageRequest{
		Title:    "测试页面",
		Content:  "页面内容",
		PageType: pageType,
		Tags:     []string{"规章", "流程"},
	}, authorID)
	if err != nil {
		t.Fatalf("创建页面失败: %v", err)
	}
	return result
}

// ── Create 与扇出 ──

func TestPageCreate_InfoNoFanout(t *testing.T) {
	svc, users, notifications, _ := setupTestPageService()
	addActiveUser(users, "author", "author@corp.test")
	addActiveUser(users, "user-a", "a@corp.test")

	createTestPage(t, svc, "author", model.PageTypeInfo)

	if len(notifications.notifications) != 0 {
		t.Errorf("info 页面不应触发扇出，实际产生 %d 条通知", len(notifications.notifications))
	}
}

func TestPageCreate_AnnouncementFansOut(t *testing.T) {
	svc, users, notifications, _ := setupTestPageService()
	addActiveUser(users, "author", "author@corp.test")
	addActiveUser(users, "user-a", "a@corp.test")
	addActiveUser(users, "user-b", "b@corp.test")

	createTestPage(t, svc, "author", model.PageTypeAnnouncement)

	if len(notifications.notifications) != 2 {
		t.Errorf("公告应向 2 个接收者扇出，实际=%d", len(notifications.notifications))
	}
}

// ── Get 可见性 ──

func TestPageGet_UnpublishedHiddenFromOthers(t *testing.T) {
	svc, users, _, _ := setupTestPageService()
	addActiveUser(users, "author", "author@corp.test")

	page := createTestPage(t, svc, "author", model.PageTypeInfo)

	// 下架
	off := false
	if _, err := svc.Update(context.Background(), page.ID, &dto.UpdatePageRequest{Published: &off}, "author", model.RoleEditor); err != nil {
		t.Fatalf("下架失败: %v", err)
	}

	// 普通成员视角：按不存在处理
	if _, err := svc.Get(context.Background(), page.ID, "someone", model.RoleMember); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("未发布页面对他人应不可见，实际: %v", err)
	}

	// 作者本人可见
	if _, err := svc.Get(context.Background(), page.ID, "author", model.RoleEditor); err != nil {
		t.Errorf("作者本人应可见未发布页面: %v", err)
	}

	// admin 可见
	if _, err := svc.Get(context.Background(), page.ID, "someone", model.RoleAdmin); err != nil {
		t.Errorf("admin 应可见未发布页面: %v", err)
	}
}

// ── Update / Delete 权限 ──

func TestPageUpdate_Permission(t *testing.T) {
	svc, users, _, _ := setupTestPageService()
	addActiveUser(users, "author", "author@corp.test")

	page := createTestPage(t, svc, "author", model.PageTypeInfo)
	newTitle := "改过的标题"

	// 非作者的 editor 无权更新
	_, err := svc.Update(context.Background(), page.ID, &dto.UpdatePageRequest{Title: &newTitle}, "other", model.RoleEditor)
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("非作者 editor 期望 ErrNoPermission，实际: %v", err)
	}

	// admin 可更新任意页面
	result, err := svc.Update(context.Background(), page.ID, &dto.UpdatePageRequest{Title: &newTitle}, "other", model.RoleAdmin)
	if err != nil {
		t.Fatalf("admin 更新应成功: %v", err)
	}
	if result.Title != newTitle {
		t.Errorf("期望标题=%s，实际=%s", newTitle, result.Title)
	}
}

func TestPageDelete_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestPageService()

	err := svc.Delete(context.Background(), "ghost", "someone", model.RoleAdmin)
	if !errors.Is(err, ErrPageNotFound) {
		t.Errorf("期望 ErrPageNotFound，实际: %v", err)
	}
}

// ── List 缓存 ──

func TestPageList_CachesAndInvalidates(t *testing.T) {
	svc, users, _, cache := setupTestPageService()
	addActiveUser(users, "author", "author@corp.test")
	createTestPage(t, svc, "author", model.PageTypeInfo)

	req := &dto.PageListRequest{}

	// 第一次查询：未命中，写入缓存
	list, total, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("期望 1 条页面，实际 total=%d len=%d", total, len(list))
	}
	if cache.sets == 0 {
		t.Error("首次查询应写入缓存")
	}

	// 第二次查询：命中缓存
	hitsBefore := cache.hits
	if _, _, err := svc.List(context.Background(), req); err != nil {
		t.Fatalf("第二次 List 应成功: %v", err)
	}
	if cache.hits != hitsBefore+1 {
		t.Error("相同查询应命中缓存")
	}

	// 写路径失效后再次查询应包含新页面
	createTestPage(t, svc, "author", model.PageTypeInfo)
	list, total, err = svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("失效后 List 应成功: %v", err)
	}
	if total != 2 {
		t.Errorf("创建后列表应立即包含新页面，期望 total=2，实际=%d", total)
	}
}

func TestPageListCacheKey_Normalization(t *testing.T) {
	// 显式默认值与缺省参数生成同一缓存键
	implicit := &dto.PageListRequest{}
	explicit := &dto.PageListRequest{
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 20},
		SortBy:            "created_at",
		SortOrder:         "desc",
	}
	if pageListCacheKey(implicit) != pageListCacheKey(explicit) {
		t.Errorf("语义相同的查询应生成同一缓存键:\n%s\n%s",
			pageListCacheKey(implicit), pageListCacheKey(explicit))
	}

	// 不同过滤条件生成不同键
	filtered := &dto.PageListRequest{Tag: "规章"}
	if pageListCacheKey(implicit) == pageListCacheKey(filtered) {
		t.Error("不同过滤条件不应共享缓存键")
	}
}

// ── Tags ──

func TestPageTags_CountsPublishedOnly(t *testing.T) {
	svc, users, _, _ := setupTestPageService()
	addActiveUser(users, "author", "author@corp.test")

	page := createTestPage(t, svc, "author", model.PageTypeInfo)
	createTestPage(t, svc, "author", model.PageTypeInfo)

	// 下架一个页面，标签计数应减少
	off := false
	if _, err := svc.Update(context.Background(), page.ID, &dto.UpdatePageRequest{Published: &off}, "author", model.RoleEditor); err != nil {
		t.Fatalf("下架失败: %v", err)
	}

	tags, err := svc.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags 应成功: %v", err)
	}
	for _, tc := range tags {
		if tc.Count != 1 {
			t.Errorf("标签 %s 期望计数 1（仅已发布页面），实际=%d", tc.Tag, tc.Count)
		}
	}
}

func TestPagePopularTags_Limit(t *testing.T) {
	svc, users, _, _ := setupTestPageService()
	addActiveUser(users, "author", "author@corp.test")
	createTestPage(t, svc, "author", model.PageTypeInfo) // 标签: 规章, 流程

	tags, err := svc.PopularTags(context.Background(), 1)
	if err != nil {
		t.Fatalf("PopularTags 应成功: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("期望 Top-1 返回 1 个标签，实际=%d", len(tags))
	}
}
