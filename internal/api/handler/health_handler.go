package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/config"
	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/pkg/redis"
)

// HealthHandler 组合健康检查处理器
// 数据库不可用为 unhealthy（503 由上游负载均衡判定依据）；
// Redis/上传目录异常仅降级（缓存与黑名单本身就设计为可降级）。
// 依赖以探测函数注入，redisProbe 为 nil 表示 Redis 未配置。
type HealthHandler struct {
	dbProbe    func(ctx context.Context) error
	redisProbe func(ctx context.Context) error
	cfg        *config.Config
	logger     *zap.Logger
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *HealthHandler {
	h := &HealthHandler{cfg: cfg, logger: logger}
	h.dbProbe = func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	if rdb != nil {
		h.redisProbe = rdb.Ping
	}
	return h
}

// Check 组合健康检查
// GET /api/v1/health
// unhealthy 返回 500，healthy/degraded 返回 200
func (h *HealthHandler) Check(c *gin.Context) {
	resp := dto.HealthResponse{
		Status: dto.HealthStatusHealthy,
		Checks: make(map[string]dto.HealthCheckResult),
	}

	// 数据库：硬依赖
	resp.Checks["database"] = h.checkDatabase(c)
	if resp.Checks["database"].Status == "fail" {
		resp.Status = dto.HealthStatusUnhealthy
	}

	// Redis：软依赖，失败仅降级
	redisResult := h.checkRedis(c)
	resp.Checks["redis"] = redisResult
	if redisResult.Status != "ok" && resp.Status == dto.HealthStatusHealthy {
		resp.Status = dto.HealthStatusDegraded
	}

	// 上传目录：软依赖
	uploadResult := h.checkUploadDir()
	resp.Checks["upload_dir"] = uploadResult
	if uploadResult.Status != "ok" && resp.Status == dto.HealthStatusHealthy {
		resp.Status = dto.HealthStatusDegraded
	}

	// 必要配置：启动时已 Validate，此处复核运行期可见性
	configResult := h.checkConfig()
	resp.Checks["config"] = configResult
	if configResult.Status == "fail" {
		resp.Status = dto.HealthStatusUnhealthy
	} else if configResult.Status != "ok" && resp.Status == dto.HealthStatusHealthy {
		resp.Status = dto.HealthStatusDegraded
	}

	status := http.StatusOK
	if resp.Status == dto.HealthStatusUnhealthy {
		status = http.StatusInternalServerError
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) checkDatabase(c *gin.Context) dto.HealthCheckResult {
	if err := h.dbProbe(c.Request.Context()); err != nil {
		h.logger.Error("健康检查: 数据库不可用", zap.Error(err))
		return dto.HealthCheckResult{Status: "fail", Detail: "数据库连接不可用"}
	}
	return dto.HealthCheckResult{Status: "ok"}
}

func (h *HealthHandler) checkRedis(c *gin.Context) dto.HealthCheckResult {
	if h.redisProbe == nil {
		return dto.HealthCheckResult{Status: "warn", Detail: "Redis 未配置，缓存与黑名单降级"}
	}
	if err := h.redisProbe(c.Request.Context()); err != nil {
		h.logger.Warn("健康检查: Redis 不可用", zap.Error(err))
		return dto.HealthCheckResult{Status: "warn", Detail: "Redis 连接不可用"}
	}
	return dto.HealthCheckResult{Status: "ok"}
}

func (h *HealthHandler) checkConfig() dto.HealthCheckResult {
	if h.cfg.Auth.JWTSecret == "" || h.cfg.Database.Host == "" {
		return dto.HealthCheckResult{Status: "fail", Detail: "必要配置缺失"}
	}
	if !h.cfg.Mail.Enabled() {
		return dto.HealthCheckResult{Status: "warn", Detail: "邮件通道未配置，通知降级为仅站内"}
	}
	return dto.HealthCheckResult{Status: "ok"}
}

// checkUploadDir 验证上传目录可写（写入并删除探针文件）
func (h *HealthHandler) checkUploadDir() dto.HealthCheckResult {
	probe := filepath.Join(h.cfg.Upload.Dir, ".health_probe")
	if err := os.MkdirAll(h.cfg.Upload.Dir, 0o755); err != nil {
		return dto.HealthCheckResult{Status: "warn", Detail: "上传目录不可创建"}
	}
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return dto.HealthCheckResult{Status: "warn", Detail: "上传目录不可写"}
	}
	os.Remove(probe)
	return dto.HealthCheckResult{Status: "ok"}
}
