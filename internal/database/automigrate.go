package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
)

// migrationModels is ordered so referenced tables are created first
var migrationModels = []interface{}{
	&domain.User{},
	&domain.Artist{},
	&domain.FormDefinition{},
	&domain.Commission{},
	&domain.Request{},
	&domain.Invoice{},
	&domain.InvoiceItem{},
	&domain.StripeCustomer{},
	&domain.Kanban{},
	&domain.Attachment{},
}

// MigrationReport lists the tables a migration created and the ones it only diffed
type MigrationReport struct {
	Created []string
	Updated []string
}

// AutoMigrate migrates every model in one call
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(migrationModels...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}

// Migrate migrates the models one table at a time so a failure names its table
func Migrate(db *gorm.DB) (MigrationReport, error) {
	var report MigrationReport
	migrator := db.Migrator()

	for _, model := range migrationModels {
		table, err := tableName(db, model)
		if err != nil {
			return report, err
		}
		existed := migrator.HasTable(model)
		if err := db.AutoMigrate(model); err != nil {
			return report, fmt.Errorf("failed to migrate table %s: %w", table, err)
		}
		if existed {
			report.Updated = append(report.Updated, table)
		} else {
			report.Created = append(report.Created, table)
		}
	}
	return report, nil
}

// SafeAutoMigrate runs Migrate and logs what changed
func SafeAutoMigrate(db *gorm.DB, logger *zap.Logger) error {
	report, err := Migrate(db)
	if err != nil {
		logger.Error("Auto-migration failed",
			zap.Strings("created", report.Created),
			zap.Strings("updated", report.Updated),
			zap.Error(err))
		return err
	}
	logger.Info("Auto-migration completed",
		zap.Strings("created", report.Created),
		zap.Int("updated", len(report.Updated)))
	return nil
}

// SafeAutoMigrateWithRetry retries SafeAutoMigrate with doubling backoff starting at one second
func SafeAutoMigrateWithRetry(db *gorm.DB, logger *zap.Logger, maxRetries int) error {
	var err error
	backoff := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = SafeAutoMigrate(db, logger); err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		logger.Warn("Migration attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		time.Sleep(backoff)
		backoff *= 2
	}

	return fmt.Errorf("migration failed after %d attempts: %w", maxRetries, err)
}

func tableName(db *gorm.DB, model interface{}) (string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", fmt.Errorf("failed to parse model %T: %w", model, err)
	}
	return stmt.Schema.Table, nil
}
