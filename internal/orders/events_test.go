package orders

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventOrderSettled, "clothify-api", "o-1", "req-7", OrderSettledPayload{
		OrderID: "o-1",
		Status:  StatusPaid,
		Amount:  decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, EventVersion, env.EventVersion)
	assert.Equal(t, "o-1", env.CorrelationID)
	assert.Equal(t, "req-7", env.TraceID)

	var p OrderSettledPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, StatusPaid, p.Status)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, TopicOrderPlaced, TopicFor(EventOrderPlaced))
	assert.Equal(t, TopicOrderSettled, TopicFor(EventOrderSettled))
	assert.Equal(t, TopicOrderStatusChanged, TopicFor(EventOrderStatusChanged))
}
