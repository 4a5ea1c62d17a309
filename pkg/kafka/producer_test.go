package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		opts    []ProducerOption
		wantErr string
	}{
		{"ok", []ProducerOption{WithBrokers([]string{"b:9092"})}, ""},
		{"no brokers", nil, "brokers are required"},
		{"bad acks", []ProducerOption{WithBrokers([]string{"b:9092"}), WithRequiredAcks(2)}, "required acks must be -1, 0 or 1, got 2"},
		{"bad codec", []ProducerOption{WithBrokers([]string{"b:9092"}), WithCompression("brotli")}, `unknown compression "brotli"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultProducerConfig()
			for _, o := range tc.opts {
				o(&cfg)
			}
			err := cfg.validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]kafka.Compression{
		"":       0,
		"none":   0,
		"gzip":   kafka.Gzip,
		"snappy": kafka.Snappy,
		"lz4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
	} {
		got, err := parseCompression(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestNewProducer_AppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"b1:9092", "b2:9092"}),
		WithCompression("none"),
		WithBatchSize(0),
		WithHashByKey(false),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 100, p.writer.BatchSize)
	assert.Equal(t, kafka.Compression(0), p.writer.Compression)
	assert.IsType(t, &kafka.LeastBytes{}, p.writer.Balancer)
	assert.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)
}
