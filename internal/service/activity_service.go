package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
)

// ── 审计日志模块业务错误 ──

var (
	ErrInvalidLimit  = errors.New("limit 必须在 1-100 之间")
	ErrInvalidOffset = errors.New("offset 不能为负数")
	ErrInvalidDays   = errors.New("days 必须在 1-365 之间")
	ErrInvalidAction = errors.New("未知的操作类型")
)

// 查询边界
const (
	logLimitMin   = 1
	logLimitMax   = 100
	summaryDayMin = 1
	summaryDayMax = 365
	exportMaxRows = 10000
)

// ActivityEntry 一条待写入的审计日志
type ActivityEntry struct {
	UserID       string
	Action       string
	ResourceType *string
	ResourceID   *string
	IPAddress    *string
	UserAgent    *string
	Details      map[string]interface{}
}

// ActivityService 审计日志业务接口
// Log 的调用方统一按"尽力而为"处理：写入失败记日志后继续，不回滚主操作。
type ActivityService interface {
	Log(ctx context.Context, entry *ActivityEntry) error
	GetLogs(ctx context.Context, req *dto.ActivityLogListRequest) (*dto.ActivityLogListResponse, error)
	GetStatistics(ctx context.Context, req *dto.ActivityStatisticsRequest) (*dto.ActivityStatisticsResponse, error)
	GetUserActivitySummary(ctx context.Context, userID string, days int) (*dto.UserActivitySummaryResponse, error)
	ExportLogs(ctx context.Context, req *dto.ActivityLogListRequest) (*bytes.Buffer, string, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

// ────────────────────── Log ──────────────────────

func (s *activityService) Log(ctx context.Context, entry *ActivityEntry) error {
	if !model.ValidAction(entry.Action) {
		return ErrInvalidAction
	}

	row := &model.ActivityLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
	}
	if entry.Details != nil {
		row.Details = datatypes.JSONMap(entry.Details)
	}

	if err := s.repo.ActivityLog.Insert(ctx, row); err != nil {
		s.logger.Error("写入审计日志失败",
			zap.String("user_id", entry.UserID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetLogs ──────────────────────

func (s *activityService) GetLogs(ctx context.Context, req *dto.ActivityLogListRequest) (*dto.ActivityLogListResponse, error) {
	if req.Limit < logLimitMin || req.Limit > logLimitMax {
		return nil, ErrInvalidLimit
	}
	if req.Offset < 0 {
		return nil, ErrInvalidOffset
	}

	filters := &repository.ActivityLogFilters{
		UserID:       req.UserID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}

	logs, total, err := s.repo.ActivityLog.List(ctx, filters, req.Offset, req.Limit)
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ActivityLogListResponse{
		Logs:  make([]dto.ActivityLogResponse, 0, len(logs)),
		Total: total,
	}
	for i := range logs {
		resp.Logs = append(resp.Logs, toActivityLogResponse(&logs[i]))
	}
	return resp, nil
}

// ────────────────────── GetStatistics ──────────────────────

func (s *activityService) GetStatistics(ctx context.Context, req *dto.ActivityStatisticsRequest) (*dto.ActivityStatisticsResponse, error) {
	filters := &repository.ActivityLogFilters{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	counts, err := s.repo.ActivityLog.CountByAction(ctx, filters)
	if err != nil {
		s.logger.Error("统计审计日志失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ActivityStatisticsResponse{
		ByAction: make(map[string]int64, len(counts)),
	}
	for _, c := range counts {
		resp.ByAction[c.Action] = c.Count
		resp.TotalActivities += c.Count
	}
	return resp, nil
}

// ────────────────────── GetUserActivitySummary ──────────────────────

func (s *activityService) GetUserActivitySummary(ctx context.Context, userID string, days int) (*dto.UserActivitySummaryResponse, error) {
	if days < summaryDayMin || days > summaryDayMax {
		return nil, ErrInvalidDays
	}

	since := time.Now().AddDate(0, 0, -days)
	total, err := s.repo.ActivityLog.CountByUserSince(ctx, userID, since)
	if err != nil {
		s.logger.Error("查询用户活跃度失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &dto.UserActivitySummaryResponse{
		TotalActivities: total,
		Period:          fmt.Sprintf("%dd", days),
	}, nil
}

// ────────────────────── ExportLogs ──────────────────────

// ExportLogs 将过滤窗口内的日志导出为 Excel 工作簿（上限 10000 行）
func (s *activityService) ExportLogs(ctx context.Context, req *dto.ActivityLogListRequest) (*bytes.Buffer, string, error) {
	filters := &repository.ActivityLogFilters{
		UserID:       req.UserID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}

	logs, _, err := s.repo.ActivityLog.List(ctx, filters, 0, exportMaxRows)
	if err != nil {
		s.logger.Error("导出审计日志查询失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "ActivityLogs"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "用户ID", "操作", "资源类型", "资源ID", "IP", "时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i := range logs {
		row := i + 2
		entry := &logs[i]
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), entry.LogID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.UserID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.Action)
		if entry.ResourceType != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), *entry.ResourceType)
		}
		if entry.ResourceID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), *entry.ResourceID)
		}
		if entry.IPAddress != nil {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), *entry.IPAddress)
		}
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), entry.CreatedAt.Format(time.RFC3339))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, "", err
	}

	filename := fmt.Sprintf("activity-logs-%s.xlsx", time.Now().Format("20060102-150405"))
	return buf, filename, nil
}

// ── 内部辅助方法 ──

func toActivityLogResponse(entry *model.ActivityLog) dto.ActivityLogResponse {
	resp := dto.ActivityLogResponse{
		ID:           entry.LogID,
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.Details != nil {
		resp.Details = map[string]interface{}(entry.Details)
	}
	return resp
}
