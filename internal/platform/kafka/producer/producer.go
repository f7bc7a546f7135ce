// Package producer ships audit records to Kafka through franz-go.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	pstrings "syncauth/pkg/platform/strings"
)

var ErrClosed = errors.New("kafka producer closed")

// Message is one record bound for a topic. Key selects the partition.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

type Config struct {
	// Brokers is a comma separated seed list.
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	FlushTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 30 * time.Second,
		FlushTimeout:    10 * time.Second,
	}
}

type Producer struct {
	client       *kgo.Client
	logger       *slog.Logger
	flushTimeout time.Duration
	closed       atomic.Bool
}

// New builds the client. kgo dials lazily, so an unreachable broker only
// surfaces on the first Produce or Healthy call.
func New(cfg Config, logger *slog.Logger) (*Producer, error) {
	brokers := seedBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	client, err := kgo.NewClient(clientOptions(brokers, cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{client: client, logger: logger, flushTimeout: cfg.FlushTimeout}, nil
}

func seedBrokers(raw string) []string {
	return pstrings.DedupeAndTrimLower(strings.Split(raw, ","))
}

func clientOptions(brokers []string, cfg Config) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	switch cfg.Acks {
	case "0":
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case "1":
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}
	return opts
}

// Produce blocks until the broker acknowledges msg or ctx is done.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.client.ProduceSync(ctx, toRecord(msg)).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}
	return nil
}

func toRecord(msg *Message) *kgo.Record {
	rec := &kgo.Record{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	for k, v := range msg.Headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return rec
}

// Healthy pings the cluster; it backs the readiness check.
func (p *Producer) Healthy(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.client.Ping(ctx)
}

// Close flushes pending records, then releases the client. Safe to call twice.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	ctx := context.Background()
	if p.flushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.flushTimeout)
		defer cancel()
	}
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka flush incomplete on close", "error", err)
	}
	p.client.Close()
	return nil
}
