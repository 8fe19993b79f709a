package model

// Comment 页面评论表 — 对应 comments
type Comment struct {
	CommentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_id"`
	Body      string `gorm:"type:text;not null"                             json:"body"`
	UserID    string `gorm:"type:uuid;not null"                             json:"user_id"`
	PageID    string `gorm:"type:uuid;not null"                             json:"page_id"`
	SoftDeleteModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Page *Page `gorm:"foreignKey:PageID;references:PageID" json:"page,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }
