package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		entity, action, want string
	}{
		{"orders", "UPDATE", "orders.update"},
		{"table_sessions", "INSERT", "sessions.insert"},
		{"cart_items", "DELETE", "cart.delete"},
		{"tables", "INSERT", "tables.insert"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoutingKey(tt.entity, tt.action))
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "orders.update", map[string]string{"key": "1"}))
	assert.NoError(t, p.Close())
}
