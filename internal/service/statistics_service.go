package service

import (
	"context"
	"fmt"
	"time"

	"scms/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventorySummary is the dashboard snapshot: stock valuation at MRP plus the
// counts an operator scans first thing in the morning.
type InventorySummary struct {
	TotalStockValue    decimal.Decimal  `json:"total_stock_value"`
	InStockBatches     int64            `json:"in_stock_batches"`
	ExpiringBatches    int64            `json:"expiring_batches"` // within the next 7 days
	ExpiredBatches     int64            `json:"expired_batches"`
	LowStockRecords    int64            `json:"low_stock_records"`
	OpenAlerts         int64            `json:"open_alerts"`
	BatchCountByStatus map[string]int64 `json:"batch_count_by_status"`
}

// StatisticsService aggregates reporting queries. It reads the database
// directly instead of going through repositories: these are cross-entity
// aggregates with no write path.
type StatisticsService interface {
	GetInventorySummary(ctx context.Context) (*InventorySummary, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

func (s *statisticsService) GetInventorySummary(ctx context.Context) (*InventorySummary, error) {
	db := s.db.WithContext(ctx)
	summary := &InventorySummary{BatchCountByStatus: make(map[string]int64)}

	var totalValue struct {
		Value decimal.Decimal
	}
	err := db.Model(&model.Batch{}).
		Select("COALESCE(SUM(batches.current_quantity * products.mrp), 0) AS value").
		Joins("JOIN products ON products.id = batches.product_id").
		Where("batches.status = ?", model.BatchStatusInStock).
		Scan(&totalValue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute stock valuation: %w", err)
	}
	summary.TotalStockValue = totalValue.Value.Round(2)

	type statusCount struct {
		Status string
		Count  int64
	}
	var statusCounts []statusCount
	if err := db.Model(&model.Batch{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count batches by status: %w", err)
	}
	for _, sc := range statusCounts {
		summary.BatchCountByStatus[sc.Status] = sc.Count
		switch sc.Status {
		case model.BatchStatusInStock:
			summary.InStockBatches = sc.Count
		case model.BatchStatusExpired:
			summary.ExpiredBatches = sc.Count
		}
	}

	now := time.Now()
	if err := db.Model(&model.Batch{}).
		Where("status = ? AND current_quantity > 0 AND expiration_date > ? AND expiration_date <= ?",
			model.BatchStatusInStock, now, now.AddDate(0, 0, 7)).
		Count(&summary.ExpiringBatches).Error; err != nil {
		return nil, fmt.Errorf("failed to count expiring batches: %w", err)
	}

	if err := db.Model(&model.InventoryRecord{}).
		Where("reorder_point IS NOT NULL AND quantity_on_hand < reorder_point").
		Count(&summary.LowStockRecords).Error; err != nil {
		return nil, fmt.Errorf("failed to count low stock records: %w", err)
	}

	if err := db.Model(&model.Alert{}).
		Where("status IN ?", []string{model.AlertStatusNew, model.AlertStatusAcknowledged}).
		Count(&summary.OpenAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count open alerts: %w", err)
	}

	return summary, nil
}
