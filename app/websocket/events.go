package websocket

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	TypeChange    MessageType = "change"
	TypeHeartbeat MessageType = "heartbeat"
)

// Action represents the kind of row-level change
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Table names published on the change feed. One event stream per table;
// order-level events do not carry item-level changes, which is why
// subscribers follow every event with a full refresh.
const (
	TableMaterials   = "materials"
	TableMenuItems   = "menu_items"
	TableIngredients = "ingredients"
	TableOrders      = "orders"
	TableOrderItems  = "order_items"
	TableKdsTickets  = "kds_tickets"
)

// Message is the wire envelope for all feed traffic.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ChangeEvent is a row-level change notification. New is the full record
// after an insert/update; Old is the record before an update/delete. Payloads
// stay raw until the subscriber decodes them into its entity type.
type ChangeEvent struct {
	Table     string          `json:"table"`
	Action    Action          `json:"action"`
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
