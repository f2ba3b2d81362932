package services

import (
	"errors"
	"testing"

	"KopiPos/app/apperrors"
	"KopiPos/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateOrder(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		CustomerName: "Budi",
		Items: []models.CreateOrderItemRequest{
			{MenuItemID: latte.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(30000), order.Total)
	assert.Nil(t, order.Payment)
	assert.False(t, order.Date.IsZero())

	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(15000), order.Items[0].PriceAtTime)
	assert.Equal(t, 2, order.Items[0].Quantity)

	require.Len(t, order.Tickets, 1)
	assert.Equal(t, models.TicketStatusNew, order.Tickets[0].Status)
}

func TestCreateOrderRequiresItems(t *testing.T) {
	svc := newTestOrderService(t, setupTestDB(t))

	_, err := svc.CreateOrder(models.CreateOrderRequest{CustomerName: "Budi"})
	assert.True(t, apperrors.IsValidation(err), "got %v", err)
}

func TestCreateOrderRejectsInactiveItem(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)

	item := models.MenuItem{Name: "Old Blend", Price: 10000, Status: models.MenuItemInactive}
	require.NoError(t, gdb.Create(&item).Error)

	_, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: item.ID, Quantity: 1}},
	})
	assert.True(t, apperrors.IsValidation(err), "got %v", err)

	// Nothing persisted
	var count int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderSnapshotsPrice(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Raise the menu price after the order exists
	require.NoError(t, gdb.Model(&models.MenuItem{}).Where("id = ?", latte.ID).
		Update("price", 20000).Error)

	reloaded, err := svc.GetOrderDetail(order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), reloaded.Items[0].PriceAtTime)
	assert.Equal(t, int64(15000), reloaded.Total)
}

func TestCompleteOrder(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	completed, err := svc.CompleteOrder(order.ID, models.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, completed.Status)
	require.NotNil(t, completed.Payment)
	assert.Equal(t, models.PaymentCash, *completed.Payment)
}

func TestCompleteOrderRequiresPayment(t *testing.T) {
	svc := newTestOrderService(t, setupTestDB(t))

	_, err := svc.CompleteOrder(1, "")
	assert.True(t, apperrors.IsValidation(err), "got %v", err)

	_, err = svc.CompleteOrder(1, models.PaymentMethod("iou"))
	assert.True(t, apperrors.IsValidation(err), "got %v", err)
}

func TestCompleteOrderTwiceRejected(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.CompleteOrder(order.ID, models.PaymentCash)
	require.NoError(t, err)

	_, err = svc.CompleteOrder(order.ID, models.PaymentQRIS)
	assert.True(t, apperrors.IsInvalidTransition(err), "got %v", err)

	// First payment untouched
	reloaded, err := svc.GetOrderDetail(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCash, *reloaded.Payment)
}

func TestCancelOrder(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.Payment)

	_, err = svc.CompleteOrder(order.ID, models.PaymentCash)
	assert.True(t, apperrors.IsInvalidTransition(err), "got %v", err)
}

func TestAdvanceTicket(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Skipping preparing is allowed
	ticket, err := svc.AdvanceTicket(order.ID, models.TicketStatusReady)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusReady, ticket.Status)

	// Going back is not
	_, err = svc.AdvanceTicket(order.ID, models.TicketStatusPreparing)
	assert.True(t, apperrors.IsInvalidTransition(err), "got %v", err)

	// Same state succeeds without change
	ticket, err = svc.AdvanceTicket(order.ID, models.TicketStatusReady)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusReady, ticket.Status)
}

func TestAdvanceTicketStaleAfterCompletion(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.CompleteOrder(order.ID, models.PaymentCash)
	require.NoError(t, err)

	_, err = svc.AdvanceTicket(order.ID, models.TicketStatusPreparing)
	assert.True(t, apperrors.IsStaleTicket(err), "got %v", err)

	// Ticket unchanged
	reloaded, err := svc.GetOrderDetail(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusNew, reloaded.Tickets[0].Status)
}

func TestDeleteOrderCascades(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	order, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(order.ID))

	_, err = svc.GetOrderDetail(order.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var items, tickets int64
	require.NoError(t, gdb.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
	require.NoError(t, gdb.Model(&models.KdsTicket{}).Where("order_id = ?", order.ID).Count(&tickets).Error)
	assert.Zero(t, items)
	assert.Zero(t, tickets)
}

func TestListPendingOrders(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newTestOrderService(t, gdb)
	latte := seedMenuItem(t, gdb, "Latte", 15000)

	first, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := svc.CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.CompleteOrder(first.ID, models.PaymentCash)
	require.NoError(t, err)

	pending, err := svc.ListPendingOrders()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}
