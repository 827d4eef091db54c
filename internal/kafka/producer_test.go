package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placed struct {
	OrderID string `json:"order_id"`
	Qty     int    `json:"qty"`
}

func TestNewMessage(t *testing.T) {
	m, err := NewMessage("order.placed", []byte("o-1"), placed{OrderID: "o-1", Qty: 2}, map[string]string{
		"x-event-version": "1",
		"x-event-type":    "OrderPlaced",
	})
	require.NoError(t, err)

	assert.Equal(t, "order.placed", m.Topic)
	assert.Equal(t, []byte("o-1"), m.Key)
	assert.JSONEq(t, `{"order_id":"o-1","qty":2}`, string(m.Value))
	require.Len(t, m.Headers, 2)
	assert.Equal(t, "x-event-type", m.Headers[0].Key)
	assert.Equal(t, "OrderPlaced", HeaderValue(m, "x-event-type"))
	assert.Equal(t, "", HeaderValue(m, "missing"))
}

func TestNewMessage_Unencodable(t *testing.T) {
	_, err := NewMessage("t", nil, make(chan int), nil)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	got, err := Decode[placed]([]byte(`{"order_id":"o-9","qty":3}`))
	require.NoError(t, err)
	assert.Equal(t, placed{OrderID: "o-9", Qty: 3}, got)

	_, err = UnwrapPayload[placed]([]byte(`{"qty":"three"}`))
	assert.Error(t, err)
}

func TestProducer_RejectsAfterClose(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, 4, nil)
	require.NoError(t, p.PublishJSON(context.Background(), "order.placed", nil, placed{OrderID: "a"}, nil))

	p.Close()
	p.Close()

	err := p.PublishJSON(context.Background(), "order.placed", nil, placed{OrderID: "b"}, nil)
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProducer_FullBufferHonoursContext(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, 1, nil)
	defer p.Close()
	require.NoError(t, p.PublishJSON(context.Background(), "t", nil, 1, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.PublishJSON(ctx, "t", nil, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
