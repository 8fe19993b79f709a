package model

// ── 页面类型枚举 ──

const (
	PageTypeInfo         = "info"
	PageTypeProcedure    = "procedure"
	PageTypeAnnouncement = "announcement"
	PageTypeWarning      = "warning"
)

// ValidPageType 判断页面类型是否属于封闭枚举
func ValidPageType(t string) bool {
	switch t {
	case PageTypeInfo, PageTypeProcedure, PageTypeAnnouncement, PageTypeWarning:
		return true
	}
	return false
}

// Page 内容页面表 — 对应 pages
// 发布即生效，无草稿/审批流程。
type Page struct {
	PageID    string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"page_id"`
	Title     string      `gorm:"type:varchar(255);not null"                     json:"title"`
	Content   string      `gorm:"type:text;not null"                             json:"content"`
	PageType  string      `gorm:"type:varchar(20);not null;default:'info'"       json:"page_type"`
	Tags      StringArray `gorm:"type:text[]"                                    json:"tags"`
	Published bool        `gorm:"not null;default:true"                          json:"published"`
	AuthorID  string      `gorm:"type:uuid;not null"                             json:"author_id"`
	SoftDeleteModel

	// 关联
	Author *User `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
}

// TableName 指定表名
func (Page) TableName() string { return "pages" }
