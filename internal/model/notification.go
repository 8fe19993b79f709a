package model

// Notification 通知消息表 — 对应 notifications
// 每条通知恰好属于一个接收者，写入后仅允许翻转 is_read。
type Notification struct {
	NotificationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string `gorm:"type:varchar(255);not null"                     json:"title"`
	Message        string `gorm:"type:text;not null"                             json:"message"`
	IsRead         bool   `gorm:"not null;default:false"                         json:"is_read"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// NotificationPreference 通知偏好表 — 对应 notification_preferences（与 users 1:1）
// 首次读取时惰性创建，默认全部开启。
type NotificationPreference struct {
	UserID             string `gorm:"type:uuid;primaryKey"  json:"user_id"`
	InAppNotifications bool   `gorm:"not null;default:true" json:"in_app_notifications"`
	EmailNotifications bool   `gorm:"not null;default:true" json:"email_notifications"`
	BaseModel
}

// TableName 指定表名
func (NotificationPreference) TableName() string { return "notification_preferences" }
