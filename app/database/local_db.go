package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNoCache is returned when a collection has never been mirrored locally.
var ErrNoCache = errors.New("no cached collection")

// LocalDB is the durable offline mirror. Each entity collection is stored as
// a single JSON-serialized array under a fixed key, overwritten wholesale on
// every successful remote read.
type LocalDB struct {
	db     *gorm.DB
	dbPath string
}

var localDB *LocalDB

// CachedCollection is one mirrored entity collection.
type CachedCollection struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Data      string    `json:"data"` // JSON array of full records
	UpdatedAt time.Time `json:"updated_at"`
}

// InitializeLocalDB opens the local SQLite mirror (CGO-free driver).
func InitializeLocalDB(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to local database: %w", err)
	}

	if err := gdb.AutoMigrate(&CachedCollection{}); err != nil {
		return fmt.Errorf("failed to run local migrations: %w", err)
	}

	localDB = &LocalDB{db: gdb, dbPath: dbPath}
	return nil
}

// GetLocalDB returns the local mirror instance.
func GetLocalDB() *LocalDB {
	return localDB
}

// OpenLocalDB opens a standalone mirror without touching the package
// singleton. Used by clients that manage their own mirror lifetime and by
// tests.
func OpenLocalDB(dbPath string) (*LocalDB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to local database: %w", err)
	}
	if err := gdb.AutoMigrate(&CachedCollection{}); err != nil {
		return nil, fmt.Errorf("failed to run local migrations: %w", err)
	}
	return &LocalDB{db: gdb, dbPath: dbPath}, nil
}

// SaveCollection overwrites the mirror for one collection with the full
// record set. Timestamps round-trip through RFC 3339 with sub-second
// precision.
func (l *LocalDB) SaveCollection(name string, records interface{}) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize collection %s: %w", name, err)
	}

	row := CachedCollection{
		Name:      name,
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	return l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

// LoadCollection reads the most recent mirror of a collection into out,
// which must be a pointer to a slice. Returns ErrNoCache when the collection
// was never mirrored.
func (l *LocalDB) LoadCollection(name string, out interface{}) error {
	var row CachedCollection
	if err := l.db.First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCache
		}
		return err
	}
	return json.Unmarshal([]byte(row.Data), out)
}

// CollectionAge returns when a collection was last mirrored.
func (l *LocalDB) CollectionAge(name string) (time.Time, error) {
	var row CachedCollection
	if err := l.db.First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, ErrNoCache
		}
		return time.Time{}, err
	}
	return row.UpdatedAt, nil
}

// GetDB returns the underlying database connection.
func (l *LocalDB) GetDB() *gorm.DB {
	return l.db
}

// Close closes the local database connection.
func (l *LocalDB) Close() error {
	if l.db == nil {
		return nil
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
