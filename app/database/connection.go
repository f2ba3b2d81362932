package database

import (
	"fmt"
	"time"

	"KopiPos/app/config"
	"KopiPos/app/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// GetDB returns the remote store instance
func GetDB() *gorm.DB {
	return db
}

// Initialize sets up the remote store connection and runs migrations.
func Initialize(cfg *config.AppConfig) error {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
		DisableForeignKeyConstraintWhenMigrating: false,
	}

	var err error
	db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RunMigrations creates the schema. Shared with the in-memory test databases.
func RunMigrations(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		// Catalog models
		&models.Material{},
		&models.MenuItem{},
		&models.Ingredient{},

		// Order models
		&models.Order{},
		&models.OrderItem{},
		&models.KdsTicket{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	createIndexes(gdb)
	return nil
}

// createIndexes creates query indexes beyond what the model tags declare.
func createIndexes(gdb *gorm.DB) {
	gdb.Exec("CREATE INDEX IF NOT EXISTS idx_orders_date_desc ON orders(date DESC)")
	gdb.Exec("CREATE INDEX IF NOT EXISTS idx_kds_tickets_order_id ON kds_tickets(order_id)")
	gdb.Exec("CREATE INDEX IF NOT EXISTS idx_ingredients_menu_item_id ON ingredients(menu_item_id)")
}

// Ping checks whether the remote store is reachable.
func Ping() error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the remote store connection.
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes a function within a database transaction.
func Transaction(fn func(*gorm.DB) error) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return db.Transaction(fn)
}
