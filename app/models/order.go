package models

import (
	"database/sql/driver"
	"time"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Terminal reports whether no further order transition is permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s *OrderStatus) Scan(value interface{}) error {
	*s = OrderStatus(value.(string))
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// TicketStatus represents the kitchen preparation status of a ticket
type TicketStatus string

const (
	TicketStatusNew       TicketStatus = "new"
	TicketStatusPreparing TicketStatus = "preparing"
	TicketStatusReady     TicketStatus = "ready"
)

func (s TicketStatus) String() string {
	return string(s)
}

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusPreparing, TicketStatusReady:
		return true
	}
	return false
}

func (s *TicketStatus) Scan(value interface{}) error {
	*s = TicketStatus(value.(string))
	return nil
}

func (s TicketStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentMethod represents how a completed order was paid
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentTransfer PaymentMethod = "transfer"
)

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentQRIS, PaymentTransfer:
		return true
	}
	return false
}

func (p *PaymentMethod) Scan(value interface{}) error {
	*p = PaymentMethod(value.(string))
	return nil
}

func (p PaymentMethod) Value() (driver.Value, error) {
	return string(p), nil
}

// Order is a customer transaction. Total is a snapshot taken at creation and
// never recomputed, regardless of later menu price changes. Items and tickets
// are owned exclusively and deleted with the order.
type Order struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CustomerName string         `json:"customer_name,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Total        int64          `gorm:"not null" json:"total"` // minor currency units, frozen at creation
	Status       OrderStatus    `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	Payment      *PaymentMethod `gorm:"type:varchar(20)" json:"payment,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Date         time.Time      `gorm:"index;not null" json:"date"` // business order time, distinct from created_at
	Items        []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Tickets      []KdsTicket    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"tickets"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// OrderItem is a line item. PriceAtTime snapshots MenuItem.Price at order
// creation and must never be retroactively updated.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"index;not null" json:"order_id"`
	MenuItemID  uint      `gorm:"index;not null" json:"menu_item_id"`
	MenuItem    *MenuItem `gorm:"foreignKey:MenuItemID" json:"menu_item,omitempty"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	PriceAtTime int64     `gorm:"not null" json:"price_at_time"` // minor currency units
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LineTotal returns quantity × snapshot price for one item.
func (i *OrderItem) LineTotal() int64 {
	return int64(i.Quantity) * i.PriceAtTime
}

// KdsTicket tracks kitchen preparation for an order. Exactly one ticket is
// created with each order; it is only deleted by cascading with the order.
type KdsTicket struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	OrderID   uint         `gorm:"index;not null" json:"order_id"`
	Status    TicketStatus `gorm:"type:varchar(20);index;not null;default:'new'" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
