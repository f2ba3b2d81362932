package services

import (
	"fmt"

	"KopiPos/app/database"
	"KopiPos/app/websocket"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Publisher is the slice of the feed server the services need. Nil-safe via
// publish below, so services run without a hub in tests.
type Publisher interface {
	PublishChange(table string, action websocket.Action, newRec, oldRec interface{})
}

// validate is shared by all command entry points.
var validate = validator.New()

// BaseService provides common functionality for all services
type BaseService struct {
	db        *gorm.DB
	publisher Publisher
}

// NewBaseService creates a new base service instance bound to the remote
// store.
func NewBaseService() *BaseService {
	return &BaseService{db: database.GetDB()}
}

// GetDB returns the database connection
func (b *BaseService) GetDB() *gorm.DB {
	return b.db
}

// SetDB sets the database connection (useful for testing)
func (b *BaseService) SetDB(db *gorm.DB) {
	b.db = db
}

// SetPublisher wires the change feed server. Set after the feed server is
// constructed; services created first.
func (b *BaseService) SetPublisher(p Publisher) {
	b.publisher = p
}

// EnsureDB checks if database is initialized and returns an error if not
func (b *BaseService) EnsureDB() error {
	if b.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return nil
}

// WithTransaction executes a function within a database transaction
func (b *BaseService) WithTransaction(fn func(tx *gorm.DB) error) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	return b.db.Transaction(fn)
}

// publish sends a change event if a feed server is wired.
func (b *BaseService) publish(table string, action websocket.Action, newRec, oldRec interface{}) {
	if b.publisher != nil {
		b.publisher.PublishChange(table, action, newRec, oldRec)
	}
}
