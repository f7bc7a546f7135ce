package producer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRequiresBrokers(t *testing.T) {
	for _, brokers := range []string{"", " , "} {
		cfg := DefaultConfig()
		cfg.Brokers = brokers
		_, err := New(cfg, discard())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka brokers not configured")
	}
}

func TestSeedBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"},
		seedBrokers(" Kafka-1:9092,kafka-2:9092, kafka-1:9092,"))
}

func TestClientOptions(t *testing.T) {
	brokers := []string{"kafka-1:9092"}
	cfg := DefaultConfig()
	assert.Len(t, clientOptions(brokers, cfg), 6, "seed, retries, linger, auto-create, acks, delivery timeout")

	cfg.Acks = "1"
	cfg.DeliveryTimeout = 0
	assert.Len(t, clientOptions(brokers, cfg), 6, "leader acks add disabled idempotence, no delivery timeout")
}

func TestToRecord(t *testing.T) {
	rec := toRecord(&Message{
		Topic:   "syncauth.audit",
		Key:     []byte("198.51.100.1"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"event_type": "address_temp_banned"},
	})
	assert.Equal(t, "syncauth.audit", rec.Topic)
	assert.Equal(t, []byte("198.51.100.1"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
}

func TestClosedProducer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Brokers = "127.0.0.1:1"
	cfg.FlushTimeout = 0
	p, err := New(cfg, discard())
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close is idempotent")

	assert.ErrorIs(t, p.Produce(context.Background(), &Message{Topic: "t"}), ErrClosed)
	assert.ErrorIs(t, p.Healthy(context.Background()), ErrClosed)
}
