package db

import (
	"fmt"
	"log"
	"time"

	"crowdmint-backend/internal/config"
	"crowdmint-backend/internal/metrics"
	"crowdmint-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL and configures the pool. The caller owns the
// returned handle; there is no package-level connection.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	gdb, err := OpenDialector(postgres.Open(cfg.DSN))
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	metrics.DBConnectionPoolSize.Set(float64(cfg.MaxOpenConns))
	metrics.DBConnectionStatus.Set(1)
	log.Println("✅ Database connected successfully")
	return gdb, nil
}

// OpenDialector opens GORM with the settings every environment shares
func OpenDialector(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return gdb, nil
}

// Migrate creates or updates the schema, then applies the dialect specific
// statements GORM tags cannot express.
func Migrate(gdb *gorm.DB) error {
	log.Println("🚀 Starting database schema migration with GORM AutoMigrate...")

	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	if gdb.Dialector.Name() == "postgres" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := RunDataMigrations(sqlDB); err != nil {
			return err
		}
	}

	log.Println("✅ Database schema migrated successfully")
	return nil
}

// ReportPoolStats copies sql.DB pool statistics into the gauges
func ReportPoolStats(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		metrics.DBConnectionStatus.Set(0)
		return err
	}
	stats := sqlDB.Stats()
	metrics.DBConnectionActive.Set(float64(stats.InUse))
	metrics.DBConnectionIdle.Set(float64(stats.Idle))
	metrics.DBConnectionStatus.Set(1)
	return nil
}
