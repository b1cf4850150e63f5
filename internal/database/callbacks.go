package database

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// MetricsRecorder is an interface for recording database metrics
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats sql.DBStats)
}

// RegisterMetricsCallbacks times every select, insert, update, delete and raw
// statement issued through db and reports it to recorder.
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) {
	cb := db.Callback()

	_ = cb.Query().Before("gorm:query").Register("metrics:select_before", markStart)
	_ = cb.Query().After("gorm:query").Register("metrics:select_after", observe("select", recorder))

	_ = cb.Create().Before("gorm:create").Register("metrics:insert_before", markStart)
	_ = cb.Create().After("gorm:create").Register("metrics:insert_after", observe("insert", recorder))

	_ = cb.Update().Before("gorm:update").Register("metrics:update_before", markStart)
	_ = cb.Update().After("gorm:update").Register("metrics:update_after", observe("update", recorder))

	_ = cb.Delete().Before("gorm:delete").Register("metrics:delete_before", markStart)
	_ = cb.Delete().After("gorm:delete").Register("metrics:delete_after", observe("delete", recorder))

	_ = cb.Raw().Before("gorm:raw").Register("metrics:raw_before", markStart)
	_ = cb.Raw().After("gorm:raw").Register("metrics:raw_after", observe("raw", recorder))
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startTimeKey, time.Now())
}

func observe(operation string, recorder MetricsRecorder) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		start, ok := tx.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		table := tx.Statement.Table
		if table == "" {
			table = "unknown"
		}
		recorder.RecordDBQuery(operation, table, time.Since(start.(time.Time)), tx.Error)
	}
}

// StartDBStatsCollector pushes connection pool stats every interval until the returned channel is closed
func StartDBStatsCollector(db *gorm.DB, recorder MetricsRecorder, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					continue
				}
				recorder.UpdateDBStats(sqlDB.Stats())
			case <-done:
				return
			}
		}
	}()

	return done
}
