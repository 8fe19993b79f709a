package dto

// ── 健康检查 DTO ──

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

// HealthCheckResult 单项检查结果
type HealthCheckResult struct {
	Status string `json:"status"` // "ok" | "warn" | "fail"
	Detail string `json:"detail,omitempty"`
}

// HealthResponse 组合健康检查响应
type HealthResponse struct {
	Status string                       `json:"status"` // healthy | degraded | unhealthy
	Checks map[string]HealthCheckResult `json:"checks"`
}
