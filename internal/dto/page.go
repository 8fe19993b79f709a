package dto

// ── 页面模块 DTO ──

// CreatePageRequest 创建页面请求
type CreatePageRequest struct {
	Title    string   `json:"title"     binding:"required,min=1,max=255"`
	Content  string   `json:"content"   binding:"required"`
	PageType string   `json:"page_type" binding:"required,oneof=info procedure announcement warning"`
	// 标签不允许逗号和花括号（存储层按 {a,b} 文本数组编码）
	Tags []string `json:"tags" binding:"omitempty,max=20,dive,min=1,max=50,excludesall=0x2C{}"`
}

// UpdatePageRequest 更新页面请求（仅更新非 nil 字段）
type UpdatePageRequest struct {
	Title     *string   `json:"title"     binding:"omitempty,min=1,max=255"`
	Content   *string   `json:"content"   binding:"omitempty"`
	PageType  *string   `json:"page_type" binding:"omitempty,oneof=info procedure announcement warning"`
	Tags      *[]string `json:"tags"      binding:"omitempty,max=20,dive,min=1,max=50,excludesall=0x2C{}"`
	Published *bool     `json:"published" binding:"omitempty"`
}

// PageListRequest 页面列表查询参数
// Query 为空表示不做全文过滤，而非匹配空字符串。
type PageListRequest struct {
	PaginationRequest
	Query     string `form:"query"      binding:"omitempty,max=100"`
	PageType  string `form:"page_type"  binding:"omitempty,oneof=info procedure announcement warning"`
	Tag       string `form:"tag"        binding:"omitempty,max=50"`
	AuthorID  string `form:"author_id"  binding:"omitempty,uuid"`
	SortBy    string `form:"sort_by"    binding:"omitempty,oneof=created_at updated_at title"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// GetSortBy 排序字段（含默认值）
func (r *PageListRequest) GetSortBy() string {
	if r.SortBy == "" {
		return "created_at"
	}
	return r.SortBy
}

// GetSortOrder 排序方向（含默认值）
func (r *PageListRequest) GetSortOrder() string {
	if r.SortOrder == "" {
		return "desc"
	}
	return r.SortOrder
}

// PageResponse 页面响应
type PageResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	PageType  string     `json:"page_type"`
	Tags      []string   `json:"tags"`
	Published bool       `json:"published"`
	Author    *UserBrief `json:"author,omitempty"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

// TagCountResponse 标签及使用次数
type TagCountResponse struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// PopularTagsRequest 热门标签查询参数
type PopularTagsRequest struct {
	Limit int `json:"limit" form:"limit" binding:"omitempty,min=1,max=50"`
}

// GetLimit 返回 Top-N 数量（含默认值）
func (r *PopularTagsRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 10
	}
	return r.Limit
}
