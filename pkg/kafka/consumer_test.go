package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/pkg/observability"
)

func TestNewConsumer_Options(t *testing.T) {
	cfg := Config{Brokers: []string{"kafka:9092"}, ConsumerGroup: "registry-risk"}
	noop := func(context.Context, Message) error { return nil }

	t.Run("defaults replay from the earliest offset once", func(t *testing.T) {
		c := NewConsumer(cfg, "registry.updates", noop, observability.NopLogger())
		defer c.Close()

		assert.Equal(t, "registry.updates", c.Topic())
		assert.Equal(t, StartEarliest, c.reader.Config().StartOffset)
		assert.Equal(t, 1, c.opts.attempts)
		assert.Nil(t, newDialer(cfg))
	})

	t.Run("latest offset and retries", func(t *testing.T) {
		c := NewConsumer(cfg, "registry.updates", noop, observability.NopLogger(),
			WithStartOffset(StartLatest), WithRetries(3, time.Millisecond))
		defer c.Close()

		assert.Equal(t, StartLatest, c.reader.Config().StartOffset)
		assert.Equal(t, 3, c.opts.attempts)
		assert.Equal(t, time.Millisecond, c.opts.backoff)
	})

	t.Run("tls builds a dialer", func(t *testing.T) {
		c := NewConsumer(Config{Brokers: []string{"kafka:9093"}, TLS: true}, "t", noop, observability.NopLogger())
		defer c.Close()

		d := c.reader.Config().Dialer
		require.NotNil(t, d)
		assert.NotNil(t, d.TLS)
		assert.Nil(t, d.SASLMechanism)
	})
}

func TestConsumer_HandleRetries(t *testing.T) {
	errBusy := errors.New("busy")

	tests := []struct {
		name      string
		attempts  int
		failFirst int
		wantCalls int
		wantErr   bool
	}{
		{name: "success first time", attempts: 3, failFirst: 0, wantCalls: 1},
		{name: "recovers within retries", attempts: 3, failFirst: 2, wantCalls: 3},
		{name: "gives up after the last attempt", attempts: 2, failFirst: 5, wantCalls: 2, wantErr: true},
		{name: "no retries by default", attempts: 0, failFirst: 1, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			handler := func(context.Context, Message) error {
				calls++
				if calls <= tt.failFirst {
					return errBusy
				}
				return nil
			}
			var opts []ConsumerOption
			if tt.attempts > 0 {
				opts = append(opts, WithRetries(tt.attempts, time.Millisecond))
			}
			c := NewConsumer(Config{Brokers: []string{"kafka:9092"}}, "t", handler, observability.NopLogger(), opts...)
			defer c.Close()

			err := c.handle(context.Background(), Message{Topic: "t"})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBusy)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("stops waiting when the context ends", func(t *testing.T) {
		c := NewConsumer(Config{Brokers: []string{"kafka:9092"}}, "t",
			func(context.Context, Message) error { return errBusy },
			observability.NopLogger(), WithRetries(5, time.Hour))
		defer c.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, c.handle(ctx, Message{}), context.Canceled)
	})
}

func TestToMessage(t *testing.T) {
	msg := toMessage(kafkago.Message{
		Topic:   "registry.updates",
		Offset:  42,
		Key:     []byte("11222333"),
		Value:   []byte(`{"ids":["11222333"]}`),
		Headers: []kafkago.Header{{Key: "source", Value: []byte("ingest")}},
	})

	assert.Equal(t, "registry.updates", msg.Topic)
	assert.Equal(t, int64(42), msg.Offset)
	assert.Equal(t, "11222333", string(msg.Key))
	assert.Equal(t, map[string]string{"source": "ingest"}, msg.Headers)
}
