package models

import (
	"database/sql/driver"
	"time"
)

// MenuItemStatus represents whether a menu item is sellable
type MenuItemStatus string

const (
	MenuItemActive   MenuItemStatus = "active"
	MenuItemInactive MenuItemStatus = "inactive"
)

func (s MenuItemStatus) String() string {
	return string(s)
}

func (s *MenuItemStatus) Scan(value interface{}) error {
	*s = MenuItemStatus(value.(string))
	return nil
}

func (s MenuItemStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// MenuItem is a sellable product with a price and a production cost derived
// from its ingredient recipe at the last recompute.
type MenuItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Category    string         `gorm:"index" json:"category"`
	Price       int64          `gorm:"not null;default:0" json:"price"` // minor currency units
	Cost        int64          `gorm:"not null;default:0" json:"cost"`  // sum of ingredient costs at last recompute
	Status      MenuItemStatus `gorm:"type:varchar(10);index;not null;default:'active'" json:"status"`
	Ingredients []Ingredient   `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE" json:"ingredients"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// RecomputeCost sums ingredient costs into Cost. Called whenever the recipe
// is saved; never recomputed live afterwards.
func (m *MenuItem) RecomputeCost() {
	var total int64
	for _, ing := range m.Ingredients {
		total += ing.Cost
	}
	m.Cost = total
}

// Ingredient is one line of a menu item's recipe. The material reference is
// weak: the material may be deleted, nulling MaterialID. Cost is fixed at
// save time, either entered manually or computed from the material unit cost.
type Ingredient struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MenuItemID uint      `gorm:"index;not null" json:"menu_item_id"`
	MaterialID *uint     `gorm:"index" json:"material_id,omitempty"`
	Material   *Material `gorm:"foreignKey:MaterialID;constraint:OnDelete:SET NULL" json:"material,omitempty"`
	Name       string    `json:"name"`
	Quantity   float64   `gorm:"not null" json:"quantity"`
	Unit       string    `gorm:"type:varchar(10)" json:"unit"`
	Cost       int64     `gorm:"not null;default:0" json:"cost"` // minor currency units
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
