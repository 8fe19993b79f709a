package dto

import "time"

// ── 审计日志模块 DTO ──

// ActivityLogListRequest 日志查询过滤参数
// limit/offset 的边界在 Service 层做最终校验（limit 1–100, offset ≥ 0）。
type ActivityLogListRequest struct {
	UserID       string     `form:"user_id"       binding:"omitempty,uuid"`
	Action       string     `form:"action"        binding:"omitempty,max=50"`
	ResourceType string     `form:"resource_type" binding:"omitempty,max=50"`
	ResourceID   string     `form:"resource_id"   binding:"omitempty,max=100"`
	StartDate    *time.Time `form:"start_date"    time_format:"2006-01-02"`
	EndDate      *time.Time `form:"end_date"      time_format:"2006-01-02"`
	Limit        int        `form:"limit"`
	Offset       int        `form:"offset"`
}

// ActivityStatisticsRequest 聚合统计查询参数
type ActivityStatisticsRequest struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date"   time_format:"2006-01-02"`
}

// UserActivitySummaryRequest 单用户活跃度查询参数
type UserActivitySummaryRequest struct {
	Days int `form:"days"`
}

// ActivityLogResponse 单条日志响应
type ActivityLogResponse struct {
	ID           int64                  `json:"id"`
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType *string                `json:"resource_type,omitempty"`
	ResourceID   *string                `json:"resource_id,omitempty"`
	IPAddress    *string                `json:"ip_address,omitempty"`
	UserAgent    *string                `json:"user_agent,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

// ActivityLogListResponse 日志列表响应
type ActivityLogListResponse struct {
	Logs  []ActivityLogResponse `json:"logs"`
	Total int64                 `json:"total"`
}

// ActivityStatisticsResponse 聚合统计响应
type ActivityStatisticsResponse struct {
	TotalActivities int64            `json:"total_activities"`
	ByAction        map[string]int64 `json:"by_action"`
}

// UserActivitySummaryResponse 单用户活跃度响应
type UserActivitySummaryResponse struct {
	TotalActivities int64  `json:"total_activities"`
	Period          string `json:"period"` // 如 "30d"
}
