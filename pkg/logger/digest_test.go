package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]DigestEntry
}

func (c *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = topic
	c.batches = append(c.batches, payload.([]DigestEntry))
	return nil
}

func TestDigest_FoldsRepeats(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDigest(&DigestConfig{Interval: time.Hour, MaxKeys: 10, Topic: "horacle.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		d.Add("warn", "dasha unavailable", map[string]interface{}{"i": i}, "predictor.go:10")
	}
	d.Add("error", "store failed", nil, "predictions.go:20")

	snap := d.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 3, snap[0].Count)
	assert.Equal(t, "store failed", snap[1].Message)

	d.Close()
	d.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "horacle.logs", pub.topic)
	assert.Len(t, pub.batches[0], 2)
}

func TestLogger_WithAndNop(t *testing.T) {
	l := Nop().With(String("component", "test"))
	l.Info("ignored", Int("n", 1), Float64("f", 1.5), Bool("b", true))
	l.Warn("ignored", Error(nil))

	_, err := New(&Config{Level: "nope"})
	assert.Error(t, err)
}

func TestLogger_DigestAttachedAfterWith(t *testing.T) {
	pub := &capturePublisher{}
	root := Nop()
	child := root.With(String("component", "predictor"))

	root.AttachDigest(&DigestConfig{Interval: time.Hour, Topic: "horacle.logs", Publisher: pub})
	for i := 0; i < 2; i++ {
		child.Warn("strength tables missing")
	}
	child.Info("not recorded")
	root.DetachDigest()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)
	assert.Equal(t, 2, pub.batches[0][0].Count)
	assert.Equal(t, "warn", pub.batches[0][0].Level)
}
