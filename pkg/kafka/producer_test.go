package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})

	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, p.brokers)
	assert.NotNil(t, p.writers)
	assert.Empty(t, p.writers)
	assert.Nil(t, p.transport)
}

func TestNewProducer_TLSBuildsTransport(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"kafka:9093"}, TLS: true})

	require.NotNil(t, p.transport)
	assert.NotNil(t, p.transport.TLS)
	assert.Nil(t, p.transport.SASL)
}

func TestProducer_WriterIsReusedPerTopic(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"kafka:9092"}})

	w1 := p.getOrCreateWriter("registry-risk.events")
	w2 := p.getOrCreateWriter("registry-risk.events")
	w3 := p.getOrCreateWriter("other")

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
	assert.Equal(t, "registry-risk.events", w1.Topic)
	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestResolveSASL(t *testing.T) {
	tests := []struct {
		mechanism string
		wantNil   bool
	}{
		{"PLAIN", false},
		{"", false},
		{"SCRAM-SHA-256", false},
		{"SCRAM-SHA-512", false},
		{"GSSAPI", true},
	}
	for _, tt := range tests {
		t.Run(tt.mechanism, func(t *testing.T) {
			m := resolveSASL(Config{SASLMechanism: tt.mechanism, SASLUsername: "u", SASLPassword: "p"})
			if tt.wantNil {
				assert.Nil(t, m)
			} else {
				assert.NotNil(t, m)
			}
		})
	}
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}
