package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"KopiPos/app/config"
	"KopiPos/app/models"

	"github.com/google/uuid"
)

// WebhookService delivers the fire-and-forget new-order notification.
// Delivery failures are logged and never roll back or fail the order.
type WebhookService struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookService creates the webhook sender from configuration.
func NewWebhookService(cfg config.WebhookConfig) *WebhookService {
	return &WebhookService{
		url:     cfg.URL,
		enabled: cfg.Enabled,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// NewOrderPayload is the webhook body posted on order creation.
type NewOrderPayload struct {
	Event     string       `json:"event"`
	EventID   string       `json:"event_id"`
	Timestamp time.Time    `json:"timestamp"`
	Data      NewOrderData `json:"data"`
}

// NewOrderData carries the order fields and its line items.
type NewOrderData struct {
	OrderID      uint               `json:"order_id"`
	CustomerName string             `json:"customer_name,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Total        int64              `json:"total"`
	Status       string             `json:"status"`
	Notes        string             `json:"notes,omitempty"`
	Date         time.Time          `json:"date"`
	Items        []NewOrderItemData `json:"items"`
}

// NewOrderItemData is one line item in the webhook body.
type NewOrderItemData struct {
	MenuItemID  uint   `json:"menu_item_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	PriceAtTime int64  `json:"price_at_time"`
}

// Enabled reports whether the webhook is configured and active.
func (s *WebhookService) Enabled() bool {
	return s.enabled && s.url != ""
}

// NotifyNewOrder posts the new-order payload. Safe to call from a goroutine;
// any failure is logged only.
func (s *WebhookService) NotifyNewOrder(order *models.Order) {
	if !s.Enabled() {
		return
	}
	if err := s.send(BuildNewOrderPayload(order)); err != nil {
		log.Printf("Webhook delivery failed for order %d: %v", order.ID, err)
	}
}

// BuildNewOrderPayload maps an order detail onto the webhook body.
func BuildNewOrderPayload(order *models.Order) NewOrderPayload {
	data := NewOrderData{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		Total:        order.Total,
		Status:       order.Status.String(),
		Notes:        order.Notes,
		Date:         order.Date,
	}
	for _, item := range order.Items {
		name := ""
		if item.MenuItem != nil {
			name = item.MenuItem.Name
		}
		data.Items = append(data.Items, NewOrderItemData{
			MenuItemID:  item.MenuItemID,
			Name:        name,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
		})
	}

	return NewOrderPayload{
		Event:     "new_order",
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (s *WebhookService) send(payload NewOrderPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %s", resp.Status)
	}
	return nil
}
