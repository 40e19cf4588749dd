package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Handler processes a consumed Kafka message. A non-nil error, once retries
// are exhausted, leaves the message uncommitted so it is redelivered after a
// rebalance.
type Handler func(ctx context.Context, msg Message) error

// Where a consumer group without committed offsets starts reading.
const (
	StartEarliest int64 = kafkago.FirstOffset
	StartLatest   int64 = kafkago.LastOffset
)

// ConsumerOption customises a Consumer.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	startOffset int64
	attempts    int
	backoff     time.Duration
}

// WithStartOffset sets where a new consumer group begins: StartEarliest
// replays the topic, StartLatest only sees messages published from now on.
func WithStartOffset(offset int64) ConsumerOption {
	return func(o *consumerOptions) { o.startOffset = offset }
}

// WithRetries calls a failing handler up to attempts times in total, waiting
// backoff, doubled after each failure, between calls.
func WithRetries(attempts int, backoff time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.attempts = max(attempts, 1)
		o.backoff = backoff
	}
}

// Consumer reads one topic as part of a consumer group and commits each
// message once its handler succeeds.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	opts    consumerOptions
	logger  *slog.Logger
}

// NewConsumer creates a new Consumer for the given topic with the provided handler.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	o := consumerOptions{startOffset: StartEarliest, attempts: 1}
	for _, opt := range opts {
		opt(&o)
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		StartOffset: o.startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
		Dialer:      newDialer(cfg),
	})

	return &Consumer{
		reader:  r,
		handler: handler,
		opts:    o,
		logger:  logger,
	}
}

// newDialer returns nil, the kafka-go default, unless TLS or SASL is on.
func newDialer(cfg Config) *kafkago.Dialer {
	if !cfg.TLS && !cfg.SASLEnabled {
		return nil
	}
	dialer := &kafkago.Dialer{Timeout: 10 * time.Second, DualStack: true}
	if cfg.TLS {
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.SASLEnabled {
		dialer.SASLMechanism = resolveSASL(cfg)
	}
	return dialer
}

// resolveSASL returns the SASL mechanism named in cfg, or nil when it is unknown.
func resolveSASL(cfg Config) sasl.Mechanism {
	switch cfg.SASLMechanism {
	case "SCRAM-SHA-256":
		m, err := scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
		if err != nil {
			return nil
		}
		return m
	case "SCRAM-SHA-512":
		m, err := scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
		if err != nil {
			return nil
		}
		return m
	case "PLAIN", "":
		return &plain.Mechanism{
			Username: cfg.SASLUsername,
			Password: cfg.SASLPassword,
		}
	default:
		return nil
	}
}

// Topic returns the topic this consumer reads from.
func (c *Consumer) Topic() string {
	return c.reader.Config().Topic
}

// Start consumes until ctx is canceled, which is not an error.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting",
		"topic", c.Topic(),
		"group", c.reader.Config().GroupID,
		"attempts", c.opts.attempts,
	)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("consumer stopping", "topic", c.Topic())
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		log := c.logger.With("topic", m.Topic, "partition", m.Partition, "offset", m.Offset)
		if err := c.handle(ctx, toMessage(m)); err != nil {
			log.Error("handler failed, message left uncommitted", "error", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Error("commit error", "error", err)
		}
	}
}

// handle runs the handler with the configured retries.
func (c *Consumer) handle(ctx context.Context, msg Message) error {
	wait := c.opts.backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = c.handler(ctx, msg); err == nil {
			return nil
		}
		if attempt >= c.opts.attempts {
			return fmt.Errorf("after %d attempt(s): %w", attempt, err)
		}
		c.logger.Warn("handler failed, retrying",
			"topic", msg.Topic, "offset", msg.Offset, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func toMessage(m kafkago.Message) Message {
	msg := Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: make(map[string]string, len(m.Headers)),
		Topic:   m.Topic,
		Offset:  m.Offset,
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// Close closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}
