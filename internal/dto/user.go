package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=member editor admin system_admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// UpdateRoleRequest 分配角色请求
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member editor admin system_admin"`
}
