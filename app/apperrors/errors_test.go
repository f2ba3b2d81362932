package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicatesMatchOnlyTheirKind(t *testing.T) {
	validation := NewValidation("items", "order must contain at least one item")
	transition := NewInvalidTransition("order", "completed", "cancelled")
	stale := NewStaleTicket(7, "completed")
	remote := NewRemoteUnavailable("refresh orders", errors.New("connection refused"))

	assert.True(t, IsValidation(validation))
	assert.False(t, IsValidation(transition))

	assert.True(t, IsInvalidTransition(transition))
	assert.False(t, IsInvalidTransition(stale))

	assert.True(t, IsStaleTicket(stale))
	assert.False(t, IsStaleTicket(remote))

	assert.True(t, IsRemoteUnavailable(remote))
	assert.False(t, IsRemoteUnavailable(validation))

	assert.False(t, IsValidation(nil))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", NewValidation("items", "empty"))
	assert.True(t, IsValidation(wrapped))
}

func TestRemoteUnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRemoteUnavailable("refresh orders", cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation failed on items: empty",
		NewValidation("items", "empty").Error())
	assert.Equal(t, "invalid order transition: completed -> cancelled",
		NewInvalidTransition("order", "completed", "cancelled").Error())
	assert.Equal(t, "ticket for order 7 is stale: order is completed",
		NewStaleTicket(7, "completed").Error())
}
