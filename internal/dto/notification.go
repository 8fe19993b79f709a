package dto

// ── 通知模块 DTO ──

// CreateNotificationRequest 创建通知请求（管理员）
type CreateNotificationRequest struct {
	UserID  string `json:"user_id" binding:"required,uuid"`
	Title   string `json:"title"   binding:"required,min=1,max=255"`
	Message string `json:"message" binding:"required,min=1"`
	Type    string `json:"type"    binding:"required,min=1,max=50"`
}

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// MarkAllReadResponse 批量已读响应
type MarkAllReadResponse struct {
	UpdatedCount int64 `json:"updated_count"`
}

// UnreadCountResponse 未读数量响应
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// UpdatePreferencesRequest 更新通知偏好请求（仅更新非 nil 字段）
type UpdatePreferencesRequest struct {
	InAppNotifications *bool `json:"in_app_notifications" binding:"omitempty"`
	EmailNotifications *bool `json:"email_notifications"  binding:"omitempty"`
}

// PreferencesResponse 通知偏好响应
type PreferencesResponse struct {
	InAppNotifications bool `json:"in_app_notifications"`
	EmailNotifications bool `json:"email_notifications"`
}
