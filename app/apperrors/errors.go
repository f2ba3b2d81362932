// Package apperrors defines the typed failures surfaced by the lifecycle
// engine, the reconciler and the storage layer. Callers branch on the error
// kind with the Is* predicates instead of string matching.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input rejected before any persistence attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// InvalidTransitionError reports an illegal lifecycle move. The entity state
// is left untouched.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

func NewInvalidTransition(entity, from, to string) error {
	return &InvalidTransitionError{Entity: entity, From: from, To: to}
}

func IsInvalidTransition(err error) bool {
	var t *InvalidTransitionError
	return errors.As(err, &t)
}

// StaleTicketError reports a ticket transition attempted after the parent
// order left pending. Non-fatal: the caller treats it as a signal, not a
// failure, and no state is written.
type StaleTicketError struct {
	OrderID     uint
	OrderStatus string
}

func (e *StaleTicketError) Error() string {
	return fmt.Sprintf("ticket for order %d is stale: order is %s", e.OrderID, e.OrderStatus)
}

func NewStaleTicket(orderID uint, orderStatus string) error {
	return &StaleTicketError{OrderID: orderID, OrderStatus: orderStatus}
}

func IsStaleTicket(err error) bool {
	var s *StaleTicketError
	return errors.As(err, &s)
}

// RemoteUnavailableError reports that the persistent store or change feed
// could not be reached. Reads fall back to the local mirror; writes surface
// this to the caller and are never queued.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable during %s: %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

func NewRemoteUnavailable(op string, err error) error {
	return &RemoteUnavailableError{Op: op, Err: err}
}

func IsRemoteUnavailable(err error) bool {
	var r *RemoteUnavailableError
	return errors.As(err, &r)
}
