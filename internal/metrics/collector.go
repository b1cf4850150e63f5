package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BusinessMetricsCollector refreshes the business gauges from the database.
// It is run on the metrics cron schedule.
type BusinessMetricsCollector struct {
	db      *gorm.DB
	metrics *Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewBusinessMetricsCollector creates a new collector
func NewBusinessMetricsCollector(db *gorm.DB, metrics *Metrics, logger *zap.Logger) *BusinessMetricsCollector {
	return &BusinessMetricsCollector{
		db:      db,
		metrics: metrics,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Run gathers business metrics once
func (c *BusinessMetricsCollector) Run() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in business metrics collection",
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var requestCount int64
	if err := c.db.WithContext(ctx).Table("requests").Where("deleted_at IS NULL").Count(&requestCount).Error; err != nil {
		c.logger.Error("Failed to count requests", zap.Error(err))
	} else {
		c.metrics.SetRequestsTotal(requestCount)
	}

	var openCount int64
	if err := c.db.WithContext(ctx).Table("commissions").
		Where("deleted_at IS NULL AND published = ? AND availability = ?", true, "OPEN").
		Count(&openCount).Error; err != nil {
		c.logger.Error("Failed to count open commissions", zap.Error(err))
	} else {
		c.metrics.SetCommissionsOpenTotal(openCount)
	}
}
