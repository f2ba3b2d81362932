package services

import (
	"testing"

	"KopiPos/app/apperrors"
	"KopiPos/app/models"

	"github.com/stretchr/testify/assert"
)

func TestCanCompleteOrder(t *testing.T) {
	assert.NoError(t, CanCompleteOrder(models.OrderStatusPending))
	assert.True(t, apperrors.IsInvalidTransition(CanCompleteOrder(models.OrderStatusCompleted)))
	assert.True(t, apperrors.IsInvalidTransition(CanCompleteOrder(models.OrderStatusCancelled)))
}

func TestCanCancelOrder(t *testing.T) {
	assert.NoError(t, CanCancelOrder(models.OrderStatusPending))
	assert.True(t, apperrors.IsInvalidTransition(CanCancelOrder(models.OrderStatusCompleted)))
	assert.True(t, apperrors.IsInvalidTransition(CanCancelOrder(models.OrderStatusCancelled)))
}

func TestCanAdvanceTicket(t *testing.T) {
	tests := []struct {
		name    string
		current models.TicketStatus
		target  models.TicketStatus
		wantErr func(error) bool
	}{
		{"forward one step", models.TicketStatusNew, models.TicketStatusPreparing, nil},
		{"forward skip", models.TicketStatusNew, models.TicketStatusReady, nil},
		{"preparing to ready", models.TicketStatusPreparing, models.TicketStatusReady, nil},
		{"same state is no-op", models.TicketStatusPreparing, models.TicketStatusPreparing, nil},
		{"backward rejected", models.TicketStatusReady, models.TicketStatusPreparing, apperrors.IsInvalidTransition},
		{"backward to new rejected", models.TicketStatusPreparing, models.TicketStatusNew, apperrors.IsInvalidTransition},
		{"unknown target rejected", models.TicketStatusNew, models.TicketStatus("burnt"), apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanAdvanceTicket(1, models.OrderStatusPending, tt.current, tt.target)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tt.wantErr(err), "got %v", err)
			}
		})
	}
}

func TestCanAdvanceTicketStaleOrder(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		err := CanAdvanceTicket(7, status, models.TicketStatusNew, models.TicketStatusPreparing)
		assert.True(t, apperrors.IsStaleTicket(err), "order status %s: got %v", status, err)
	}
}
