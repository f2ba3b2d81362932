package services

import (
	"KopiPos/app/apperrors"
	"KopiPos/app/models"
)

// Lifecycle rules for orders and their kitchen tickets. Pure functions: the
// order service checks them inside its transactions, tests exercise them
// directly.
//
// Orders: pending -> completed, pending -> cancelled. Both targets are
// terminal. Tickets: new -> preparing -> ready, strictly forward; skipping
// ahead is allowed, going back is not. Once the order leaves pending its
// ticket is frozen.

// ticketRank orders ticket statuses along the preparation flow.
var ticketRank = map[models.TicketStatus]int{
	models.TicketStatusNew:       0,
	models.TicketStatusPreparing: 1,
	models.TicketStatusReady:     2,
}

// CanCompleteOrder reports whether an order in the given status may be
// completed.
func CanCompleteOrder(status models.OrderStatus) error {
	if status != models.OrderStatusPending {
		return apperrors.NewInvalidTransition("order", status.String(), models.OrderStatusCompleted.String())
	}
	return nil
}

// CanCancelOrder reports whether an order in the given status may be
// cancelled.
func CanCancelOrder(status models.OrderStatus) error {
	if status != models.OrderStatusPending {
		return apperrors.NewInvalidTransition("order", status.String(), models.OrderStatusCancelled.String())
	}
	return nil
}

// CanAdvanceTicket checks a ticket move against the state graph. A same-state
// request is a no-op success. A ticket on a non-pending order is stale: the
// move is rejected with a non-fatal signal and nothing is written.
func CanAdvanceTicket(orderID uint, orderStatus models.OrderStatus, current, target models.TicketStatus) error {
	if orderStatus != models.OrderStatusPending {
		return apperrors.NewStaleTicket(orderID, orderStatus.String())
	}
	if !target.Valid() {
		return apperrors.NewValidation("status", "unknown ticket status %q", target)
	}
	if target == current {
		return nil // idempotent
	}
	if ticketRank[target] < ticketRank[current] {
		return apperrors.NewInvalidTransition("ticket", current.String(), target.String())
	}
	return nil
}
