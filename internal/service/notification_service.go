package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
	ErrNotificationTitle    = errors.New("通知标题长度必须在 1-255 字符之间")
	ErrNotificationMessage  = errors.New("通知内容不能为空")
	ErrNotificationType     = errors.New("通知类型长度必须在 1-50 字符之间")
)

// 系统通知类型
const (
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeWarning      = "warning"
)

// NotificationService 通知业务接口
type NotificationService interface {
	Create(ctx context.Context, userID, title, message, ntype string) (*dto.NotificationResponse, error)
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadResponse, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	GetPreferences(ctx context.Context, userID string) (*dto.PreferencesResponse, error)
	UpdatePreferences(ctx context.Context, userID string, req *dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error)
	NotifyNewAnnouncement(ctx context.Context, page *model.Page) error
	NotifyNewWarning(ctx context.Context, page *model.Page) error
}

type notificationService struct {
	repo   *repository.Repository
	mailer MailSender
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, mailer MailSender, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, mailer: mailer, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *notificationService) Create(ctx context.Context, userID, title, message, ntype string) (*dto.NotificationResponse, error) {
	if err := validateNotification(title, message, ntype); err != nil {
		return nil, err
	}

	// 接收者必须存在
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	n := &model.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Error("创建通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return toNotificationResponse(n), nil
}

// validateNotification 长度按字符（rune）计，与绑定层 max 语义一致
func validateNotification(title, message, ntype string) error {
	if n := utf8.RuneCountInString(title); n < 1 || n > 255 {
		return ErrNotificationTitle
	}
	if message == "" {
		return ErrNotificationMessage
	}
	if n := utf8.RuneCountInString(ntype); n < 1 || n > 50 {
		return ErrNotificationType
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toNotificationResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── MarkRead / MarkAllRead ──────────────────────

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	affected, err := s.repo.Notification.MarkRead(ctx, userID, notificationID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("notification_id", notificationID), zap.Error(err))
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadResponse, error) {
	affected, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("批量标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.MarkAllReadResponse{UpdatedCount: affected}, nil
}

// ────────────────────── UnreadCount ──────────────────────

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("查询未读数量失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

// ────────────────────── 偏好 ──────────────────────

func (s *notificationService) GetPreferences(ctx context.Context, userID string) (*dto.PreferencesResponse, error) {
	pref, err := s.repo.Notification.GetPreference(ctx, userID)
	if err != nil {
		s.logger.Error("读取通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.PreferencesResponse{
		InAppNotifications: pref.InAppNotifications,
		EmailNotifications: pref.EmailNotifications,
	}, nil
}

func (s *notificationService) UpdatePreferences(ctx context.Context, userID string, req *dto.UpdatePreferencesRequest) (*dto.PreferencesResponse, error) {
	pref, err := s.repo.Notification.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.InAppNotifications != nil {
		pref.InAppNotifications = *req.InAppNotifications
	}
	if req.EmailNotifications != nil {
		pref.EmailNotifications = *req.EmailNotifications
	}

	if err := s.repo.Notification.SavePreference(ctx, pref); err != nil {
		s.logger.Error("更新通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &dto.PreferencesResponse{
		InAppNotifications: pref.InAppNotifications,
		EmailNotifications: pref.EmailNotifications,
	}, nil
}

// ────────────────────── 扇出 ──────────────────────

// NotifyNewAnnouncement 公告发布扇出：每个符合条件的接收者恰好一条站内通知
// 调用方（页面创建路径）按"尽力而为"处理返回的错误。
func (s *notificationService) NotifyNewAnnouncement(ctx context.Context, page *model.Page) error {
	return s.fanout(ctx, page, NotificationTypeAnnouncement, "新公告: "+page.Title)
}

// NotifyNewWarning 警示发布扇出
func (s *notificationService) NotifyNewWarning(ctx context.Context, page *model.Page) error {
	return s.fanout(ctx, page, NotificationTypeWarning, "新警示: "+page.Title)
}

func (s *notificationService) fanout(ctx context.Context, page *model.Page, ntype, title string) error {
	targets, err := s.repo.User.ListFanoutTargets(ctx, page.AuthorID)
	if err != nil {
		s.logger.Error("枚举通知接收者失败", zap.String("page_id", page.PageID), zap.Error(err))
		return err
	}

	// 前缀 + 255 字符页面标题可能超出 notifications.title 的 VARCHAR(255)
	title = snippet(title, 252)
	message := snippet(page.Content, 200)

	// 站内通知批量写入
	var rows []model.Notification
	for _, t := range targets {
		if !t.InApp {
			continue
		}
		rows = append(rows, model.Notification{
			UserID:  t.UserID,
			Type:    ntype,
			Title:   title,
			Message: message,
		})
	}
	if err := s.repo.Notification.CreateBatch(ctx, rows); err != nil {
		s.logger.Error("扇出通知写入失败", zap.String("page_id", page.PageID), zap.Error(err))
		return err
	}

	// 邮件通道尽力而为：单个收件人失败不影响其余
	if s.mailer != nil && s.mailer.Enabled() {
		body := fmt.Sprintf("<h3>%s</h3><p>%s</p>", title, message)
		for _, t := range targets {
			if !t.EmailOn {
				continue
			}
			if err := s.mailer.Send(t.Email, title, body); err != nil {
				s.logger.Warn("扇出邮件发送失败",
					zap.String("to", t.Email), zap.Error(err))
			}
		}
	}

	s.logger.Info("通知扇出完成",
		zap.String("page_id", page.PageID),
		zap.String("type", ntype),
		zap.Int("recipients", len(rows)))
	return nil
}

// ── 内部辅助方法 ──

func toNotificationResponse(n *model.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		ID:        n.NotificationID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// snippet 截取内容摘要（按 rune 截断，避免多字节字符被切断）
func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
