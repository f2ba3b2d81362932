package models

import (
	"database/sql/driver"
	"math"
	"time"
)

// MaterialUnit represents the purchase unit of a raw material
type MaterialUnit string

const (
	UnitMilliliter MaterialUnit = "ml"
	UnitGram       MaterialUnit = "g"
	UnitKilogram   MaterialUnit = "kg"
	UnitPiece      MaterialUnit = "pcs"
)

func (u MaterialUnit) String() string {
	return string(u)
}

func (u MaterialUnit) Valid() bool {
	switch u {
	case UnitMilliliter, UnitGram, UnitKilogram, UnitPiece:
		return true
	}
	return false
}

func (u *MaterialUnit) Scan(value interface{}) error {
	*u = MaterialUnit(value.(string))
	return nil
}

func (u MaterialUnit) Value() (driver.Value, error) {
	return string(u), nil
}

// Material is a purchased raw-material catalog entry used to cost ingredients.
// Ingredients reference it weakly; deleting a material leaves their
// material_id null.
type Material struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"not null" json:"name"`
	Unit          MaterialUnit `gorm:"type:varchar(10);not null" json:"unit"`
	PackageSize   float64      `gorm:"not null" json:"package_size"`             // amount of Unit per purchased package, > 0
	PurchasePrice int64        `gorm:"not null;default:0" json:"purchase_price"` // minor currency units per package
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// UnitCost returns the price of one Unit of the material.
func (m *Material) UnitCost() float64 {
	if m.PackageSize <= 0 {
		return 0
	}
	return float64(m.PurchasePrice) / m.PackageSize
}

// CostFor returns the cost of the given quantity, rounded to the nearest
// minor currency unit.
func (m *Material) CostFor(quantity float64) int64 {
	return int64(math.Round(m.UnitCost() * quantity))
}
