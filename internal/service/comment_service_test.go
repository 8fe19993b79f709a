package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
)

func setupTestCommentService(t *testing.T) (CommentService, string) {
	t.Helper()
	repo, users, pages, _, _, _ := newTestRepository()
	addActiveUser(users, "page-author", "pa@corp.test")
	addActiveUser(users, "commenter", "cm@corp.test")
	addActiveUser(users, "stranger", "st@corp.test")

	page := &model.Page{Title: "页面", Content: "内容", PageType: model.PageTypeInfo, Published: true, AuthorID: "page-author"}
	if err := pages.Create(context.Background(), page); err != nil {
		t.Fatalf("创建页面失败: %v", err)
	}

	svc := NewCommentService(repo, zap.NewNop())
	return svc, page.PageID
}

func TestCommentCreate_PageNotFound(t *testing.T) {
	svc, _ := setupTestCommentService(t)

	_, err := svc.Create(context.Background(), "ghost-page", "commenter", &dto.CreateCommentRequest{Body: "评论"})
	if !errors.Is(err, ErrPageNotFound) {
		t.Errorf("期望 ErrPageNotFound，实际: %v", err)
	}
}

func TestCommentCreate_Success(t *testing.T) {
	svc, pageID := setupTestCommentService(t)

	result, err := svc.Create(context.Background(), pageID, "commenter", &dto.CreateCommentRequest{Body: "第一条评论"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Body != "第一条评论" {
		t.Errorf("期望 Body=第一条评论，实际=%s", result.Body)
	}
	if result.PageID != pageID {
		t.Errorf("期望 PageID=%s，实际=%s", pageID, result.PageID)
	}
}

// 权限矩阵：评论作者、页面作者、admin 可改；无关 member/editor 不可
func TestCommentModify_PermissionMatrix(t *testing.T) {
	cases := []struct {
		name    string
		caller  string
		role    string
		allowed bool
	}{
		{"评论作者本人", "commenter", model.RoleMember, true},
		{"页面作者", "page-author", model.RoleEditor, true},
		{"无关 member", "stranger", model.RoleMember, false},
		{"无关 editor", "stranger", model.RoleEditor, false},
		{"admin", "stranger", model.RoleAdmin, true},
		{"system_admin", "stranger", model.RoleSystemAdmin, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, pageID := setupTestCommentService(t)
			comment, err := svc.Create(context.Background(), pageID, "commenter", &dto.CreateCommentRequest{Body: "原文"})
			if err != nil {
				t.Fatalf("创建评论失败: %v", err)
			}

			_, err = svc.Update(context.Background(), comment.ID, &dto.UpdateCommentRequest{Body: "改过"}, tc.caller, tc.role)
			if tc.allowed && err != nil {
				t.Errorf("期望允许编辑，实际: %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrNoPermission) {
				t.Errorf("期望 ErrNoPermission，实际: %v", err)
			}

			err = svc.Delete(context.Background(), comment.ID, tc.caller, tc.role)
			if tc.allowed && err != nil {
				t.Errorf("期望允许删除，实际: %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrNoPermission) {
				t.Errorf("期望 ErrNoPermission，实际: %v", err)
			}
		})
	}
}

func TestCommentUpdate_NotFound(t *testing.T) {
	svc, _ := setupTestCommentService(t)

	_, err := svc.Update(context.Background(), "ghost", &dto.UpdateCommentRequest{Body: "x"}, "commenter", model.RoleMember)
	if !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("期望 ErrCommentNotFound，实际: %v", err)
	}
}

func TestCommentListByPage(t *testing.T) {
	svc, pageID := setupTestCommentService(t)
	svc.Create(context.Background(), pageID, "commenter", &dto.CreateCommentRequest{Body: "评论一"})
	svc.Create(context.Background(), pageID, "stranger", &dto.CreateCommentRequest{Body: "评论二"})

	list, total, err := svc.ListByPage(context.Background(), pageID, &dto.PaginationRequest{})
	if err != nil {
		t.Fatalf("ListByPage 应成功: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("期望 2 条评论，实际 total=%d len=%d", total, len(list))
	}
	// 时间正序：先发的在前
	if list[0].Body != "评论一" {
		t.Errorf("期望最早评论在前，实际=%s", list[0].Body)
	}
}

func TestCommentListByPage_PageNotFound(t *testing.T) {
	svc, _ := setupTestCommentService(t)

	_, _, err := svc.ListByPage(context.Background(), "ghost-page", &dto.PaginationRequest{})
	if !errors.Is(err, ErrPageNotFound) {
		t.Errorf("期望 ErrPageNotFound，实际: %v", err)
	}
}
