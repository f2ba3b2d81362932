package models

import "time"

// CreateOrderRequest is the command payload for creating an order. Prices are
// never taken from the request; they are snapshotted from the menu at call
// time.
type CreateOrderRequest struct {
	CustomerName string                   `json:"customer_name" validate:"max=120"`
	Phone        string                   `json:"phone" validate:"max=32"`
	Notes        string                   `json:"notes" validate:"max=500"`
	Date         time.Time                `json:"date"`
	Items        []CreateOrderItemRequest `json:"items" validate:"dive"`
}

// CreateOrderItemRequest is one requested line item.
type CreateOrderItemRequest struct {
	MenuItemID uint `json:"menu_item_id" validate:"required"`
	Quantity   int  `json:"quantity" validate:"required,gt=0"`
}

// CompleteOrderRequest carries the mandatory payment method.
type CompleteOrderRequest struct {
	Payment PaymentMethod `json:"payment" validate:"required"`
}

// AdvanceTicketRequest moves an order's kitchen ticket forward.
type AdvanceTicketRequest struct {
	Status TicketStatus `json:"status" validate:"required"`
}

// SaveMaterialRequest creates or updates a raw material.
type SaveMaterialRequest struct {
	Name          string       `json:"name" validate:"required,max=120"`
	Unit          MaterialUnit `json:"unit" validate:"required"`
	PackageSize   float64      `json:"package_size" validate:"required,gt=0"`
	PurchasePrice int64        `json:"purchase_price" validate:"gte=0"`
}

// SaveMenuItemRequest creates or updates a menu item together with its full
// ingredient list (the list is replaced wholesale on update).
type SaveMenuItemRequest struct {
	Name        string                  `json:"name" validate:"required,max=120"`
	Category    string                  `json:"category" validate:"max=60"`
	Price       int64                   `json:"price" validate:"gte=0"`
	Status      MenuItemStatus          `json:"status"`
	Ingredients []SaveIngredientRequest `json:"ingredients" validate:"dive"`
}

// SaveIngredientRequest is one recipe line. Cost 0 with a material reference
// means "compute from the material unit cost at save time".
type SaveIngredientRequest struct {
	MaterialID *uint   `json:"material_id,omitempty"`
	Name       string  `json:"name" validate:"max=120"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	Unit       string  `json:"unit" validate:"max=10"`
	Cost       int64   `json:"cost" validate:"gte=0"`
}
