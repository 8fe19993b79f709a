package dto

// ── 评论模块 DTO ──

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	Body string `json:"body" binding:"required,min=1,max=5000"`
}

// UpdateCommentRequest 编辑评论请求
type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required,min=1,max=5000"`
}

// CommentResponse 评论响应
type CommentResponse struct {
	ID        string     `json:"id"`
	Body      string     `json:"body"`
	PageID    string     `json:"page_id"`
	User      *UserBrief `json:"user,omitempty"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}
