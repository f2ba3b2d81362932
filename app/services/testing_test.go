package services

import (
	"path/filepath"
	"testing"
	"time"

	"KopiPos/app/database"
	"KopiPos/app/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a throwaway SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(gdb))
	return gdb
}

func newTestOrderService(t *testing.T, gdb *gorm.DB) *OrderService {
	t.Helper()
	svc := NewOrderService()
	svc.SetDB(gdb)
	return svc
}

func newTestMenuService(t *testing.T, gdb *gorm.DB) *MenuService {
	t.Helper()
	svc := NewMenuService()
	svc.SetDB(gdb)
	return svc
}

func newTestMaterialService(t *testing.T, gdb *gorm.DB) *MaterialService {
	t.Helper()
	svc := NewMaterialService()
	svc.SetDB(gdb)
	return svc
}

func newTestDashboardService(t *testing.T, gdb *gorm.DB) *DashboardService {
	t.Helper()
	svc := NewDashboardService()
	svc.SetDB(gdb)
	return svc
}

// seedMenuItem creates an active menu item fixture directly.
func seedMenuItem(t *testing.T, gdb *gorm.DB, name string, price int64) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:     name,
		Category: "coffee",
		Price:    price,
		Status:   models.MenuItemActive,
	}
	require.NoError(t, gdb.Create(&item).Error)
	return item
}
