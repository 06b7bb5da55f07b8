package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPlacedMessage(t *testing.T) {
	at := time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC)
	msg, err := orderPlacedMessage(OrderPlaced{
		OrderID:       "abc",
		Items:         2,
		Total:         decimal.RequireFromString("53.80"),
		PaymentMethod: "cash",
		PlacedAt:      at,
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order_placed", string(msg.Headers[0].Value))

	var back OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.True(t, back.Total.Equal(decimal.RequireFromString("53.80")))
	assert.Equal(t, 2, back.Items)
}

func TestKafka_ClosedPublisher(t *testing.T) {
	k := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "orders"}, zerolog.Nop())
	require.NoError(t, k.Close())
	require.NoError(t, k.Close())

	err := k.PublishOrderPlaced(context.Background(), OrderPlaced{OrderID: "x"})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), OrderPlaced{}))
	assert.NoError(t, p.Close())
}
