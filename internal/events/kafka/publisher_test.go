package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (c *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error {
	c.closed = true
	return nil
}

func TestPublisher_PublishEncodesEvent(t *testing.T) {
	w := &captureWriter{}
	p := &Publisher{writer: w}

	event := events.TransactionRecorded{
		AccountID:     "alice",
		TransactionID: "TXN_1_abc",
		Type:          "buy",
		Amount:        decimal.RequireFromString("-100"),
		Symbol:        "AAPL",
		BalanceAfter:  decimal.RequireFromString("900"),
		OccurredAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), events.TransactionRecordedTopic, "alice", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, events.TransactionRecordedTopic, msg.Topic)
	assert.Equal(t, "alice", string(msg.Key))

	var decoded events.TransactionRecorded
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "TXN_1_abc", decoded.TransactionID)
	assert.True(t, decoded.Amount.Equal(event.Amount))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_UnencodableEvent(t *testing.T) {
	p := &Publisher{writer: &captureWriter{}}
	err := p.Publish(context.Background(), "t", "k", make(chan int))
	assert.Error(t, err)
}
