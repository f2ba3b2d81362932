package services

import (
	"fmt"
	"log"
	"time"

	"KopiPos/app/apperrors"
	"KopiPos/app/models"
	"KopiPos/app/websocket"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// OrderService is the order lifecycle engine. It enforces the transition
// rules in order_lifecycle.go, keeps the financial snapshot invariants and
// publishes a change event after every successful mutation.
type OrderService struct {
	*BaseService
	webhookSvc *WebhookService
	qrisSvc    *QRISService
}

// NewOrderService creates a new order service
func NewOrderService() *OrderService {
	return &OrderService{
		BaseService: NewBaseService(),
	}
}

// SetWebhookService wires the outbound new-order webhook.
func (s *OrderService) SetWebhookService(w *WebhookService) {
	s.webhookSvc = w
}

// SetQRISService wires the QRIS code generator used for qris payments.
func (s *OrderService) SetQRISService(q *QRISService) {
	s.qrisSvc = q
}

// CreateOrder validates the request, snapshots current menu prices into the
// line items, and persists the order, its items and exactly one kitchen
// ticket atomically. The total is frozen at creation and never recomputed.
func (s *OrderService) CreateOrder(req models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.NewValidation("items", "order must contain at least one item")
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	order := models.Order{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Notes:        req.Notes,
		Date:         date,
		Status:       models.OrderStatusPending,
		Tickets:      []models.KdsTicket{{Status: models.TicketStatusNew}},
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(req.Items))
		for _, item := range req.Items {
			ids = append(ids, item.MenuItemID)
		}

		var menuItems []models.MenuItem
		if err := tx.Where("id IN ? AND status = ?", ids, models.MenuItemActive).Find(&menuItems).Error; err != nil {
			return fmt.Errorf("failed to load menu items: %w", err)
		}
		byID := make(map[uint]models.MenuItem, len(menuItems))
		for _, mi := range menuItems {
			byID[mi.ID] = mi
		}

		var total int64
		for _, item := range req.Items {
			mi, ok := byID[item.MenuItemID]
			if !ok {
				return apperrors.NewValidation("items", "menu item %d not found or inactive", item.MenuItemID)
			}
			line := models.OrderItem{
				MenuItemID:  mi.ID,
				Quantity:    item.Quantity,
				PriceAtTime: mi.Price, // snapshot, frozen from here on
			}
			total += line.LineTotal()
			order.Items = append(order.Items, line)
		}
		order.Total = total

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	created, err := s.GetOrderDetail(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.publish(websocket.TableOrders, websocket.ActionInsert, created, nil)
	if len(created.Tickets) > 0 {
		s.publish(websocket.TableKdsTickets, websocket.ActionInsert, created.Tickets[0], nil)
	}

	if s.webhookSvc != nil {
		go s.webhookSvc.NotifyNewOrder(created)
	}

	return created, nil
}

// CompleteOrder moves a pending order to completed. The payment method is
// mandatory: no completed order may carry a null payment, even though the
// legacy schema allowed it.
func (s *OrderService) CompleteOrder(id uint, payment models.PaymentMethod) (*models.Order, error) {
	if payment == "" {
		return nil, apperrors.NewValidation("payment", "payment method is required to complete an order")
	}
	if !payment.Valid() {
		return nil, apperrors.NewValidation("payment", "unknown payment method %q", payment)
	}

	var previous models.Order
	err := s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.First(&previous, id).Error; err != nil {
			return err
		}
		if err := CanCompleteOrder(previous.Status); err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":  models.OrderStatusCompleted,
			"payment": payment,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	completed, err := s.GetOrderDetail(id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.publish(websocket.TableOrders, websocket.ActionUpdate, completed, &previous)

	if payment == models.PaymentQRIS && s.qrisSvc != nil {
		if path, err := s.qrisSvc.GenerateForOrder(completed); err != nil {
			log.Printf("QRIS generation failed for order %d: %v", id, err)
		} else {
			log.Printf("QRIS code for order %d written to %s", id, path)
		}
	}

	return completed, nil
}

// CancelOrder moves a pending order to cancelled. Payment stays untouched.
func (s *OrderService) CancelOrder(id uint) (*models.Order, error) {
	var previous models.Order
	err := s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.First(&previous, id).Error; err != nil {
			return err
		}
		if err := CanCancelOrder(previous.Status); err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id = ?", id).
			Update("status", models.OrderStatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}

	cancelled, err := s.GetOrderDetail(id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.publish(websocket.TableOrders, websocket.ActionUpdate, cancelled, &previous)
	return cancelled, nil
}

// AdvanceTicket moves an order's kitchen ticket forward. Skipping ahead
// (new -> ready) is allowed, moving backward is rejected, and a same-state
// request succeeds without writing. Tickets on non-pending orders are stale;
// the caller gets the signal and nothing changes.
func (s *OrderService) AdvanceTicket(orderID uint, target models.TicketStatus) (*models.KdsTicket, error) {
	var ticket models.KdsTicket
	var changed bool

	err := s.WithTransaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", orderID).Order("id ASC").First(&ticket).Error; err != nil {
			return fmt.Errorf("no ticket for order %d: %w", orderID, err)
		}

		if err := CanAdvanceTicket(orderID, order.Status, ticket.Status, target); err != nil {
			return err
		}
		if ticket.Status == target {
			return nil // no-op success
		}

		changed = true
		if err := tx.Model(&ticket).Update("status", target).Error; err != nil {
			return err
		}
		ticket.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(websocket.TableKdsTickets, websocket.ActionUpdate, &ticket, nil)
	}
	return &ticket, nil
}

// GetOrderDetail returns an order with its items (each carrying the menu
// item snapshot) and tickets.
func (s *OrderService) GetOrderDetail(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items.MenuItem").
		Preload("Tickets").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns all orders with items and tickets, newest business date
// first.
func (s *OrderService) ListOrders() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items.MenuItem").
		Preload("Tickets").
		Order("date DESC").
		Find(&orders).Error
	return orders, err
}

// ListPendingOrders returns the kitchen's working set, oldest first.
func (s *OrderService) ListPendingOrders() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items.MenuItem").
		Preload("Tickets").
		Where("status = ?", models.OrderStatusPending).
		Order("date ASC").
		Find(&orders).Error
	return orders, err
}

// DeleteOrder physically deletes an order; items and tickets cascade with
// it. There is no soft delete.
func (s *OrderService) DeleteOrder(id uint) error {
	deleted, err := s.GetOrderDetail(id)
	if err != nil {
		return err
	}

	err = s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.KdsTicket{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
	if err != nil {
		return err
	}

	s.publish(websocket.TableOrders, websocket.ActionDelete, nil, deleted)
	return nil
}

// validationError converts the first validator violation into the typed
// taxonomy.
func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		v := verrs[0]
		return apperrors.NewValidation(v.Field(), "failed %q constraint", v.Tag())
	}
	return apperrors.NewValidation("", "%v", err)
}
