package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrTableNotFound        = errors.New("table not found")
	ErrNotTerminal          = errors.New("table is not a terminal")
	ErrConfirmationRequired = errors.New("confirmation required for this action")
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrMenuItemUnavailable  = errors.New("menu item is not available")
	ErrCartItemNotFound     = errors.New("item is not in the cart")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderArchived        = errors.New("order is archived")
	ErrInvalidTransition    = errors.New("order status transition not allowed")
	ErrInvalidInitialStatus = errors.New("orders can only start as pending or preparing")
	ErrSessionCodeExhausted = errors.New("could not allocate a unique session code")
)

// ValidationError carries per-field messages shown inline to the user.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
