package model

import (
	"time"

	"gorm.io/datatypes"
)

// ── 操作类型枚举 ──

const (
	ActionLogin              = "login"
	ActionLogout             = "logout"
	ActionPageCreate         = "page_create"
	ActionPageUpdate         = "page_update"
	ActionPageDelete         = "page_delete"
	ActionCommentCreate      = "comment_create"
	ActionCommentUpdate      = "comment_update"
	ActionCommentDelete      = "comment_delete"
	ActionFileUpload         = "file_upload"
	ActionFileDelete         = "file_delete"
	ActionUserRoleChange     = "user_role_change"
	ActionUserDeactivate     = "user_deactivate"
	ActionNotificationCreate = "notification_create"
)

// ValidAction 判断操作类型是否属于封闭枚举
func ValidAction(action string) bool {
	switch action {
	case ActionLogin, ActionLogout,
		ActionPageCreate, ActionPageUpdate, ActionPageDelete,
		ActionCommentCreate, ActionCommentUpdate, ActionCommentDelete,
		ActionFileUpload, ActionFileDelete,
		ActionUserRoleChange, ActionUserDeactivate,
		ActionNotificationCreate:
		return true
	}
	return false
}

// ActivityLog 操作审计日志表 — 对应 activity_logs
// 仅插入与查询，应用层不更新、不删除。
type ActivityLog struct {
	LogID        int64             `gorm:"primaryKey;autoIncrement"   json:"log_id"`
	UserID       string            `gorm:"type:uuid;not null;index"   json:"user_id"`
	Action       string            `gorm:"type:varchar(50);not null"  json:"action"`
	ResourceType *string           `gorm:"type:varchar(50)"           json:"resource_type,omitempty"`
	ResourceID   *string           `gorm:"type:varchar(100)"          json:"resource_id,omitempty"`
	IPAddress    *string           `gorm:"type:varchar(45)"           json:"ip_address,omitempty"`
	UserAgent    *string           `gorm:"type:varchar(500)"          json:"user_agent,omitempty"`
	Details      datatypes.JSONMap `gorm:"type:jsonb"                 json:"details,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
