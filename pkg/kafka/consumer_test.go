package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	calls   atomic.Int32
	failFor int32
	err     error
	traceID string
}

func (h *flakyHandler) Topic() string { return "horacle.prediction-requests" }

func (h *flakyHandler) Handle(ctx context.Context, _ []byte) error {
	n := h.calls.Add(1)
	h.traceID = TraceIDFromContext(ctx)
	if n <= h.failFor {
		return h.err
	}
	return nil
}

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	SetConsumerMetricsRegisterer(prometheus.NewRegistry())
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestConsumer_RetriesTransientErrors(t *testing.T) {
	c := newTestConsumer(t)
	c.WithConsumerHook(NewHookChain(TraceHook()))
	h := &flakyHandler{failFor: 2, err: errors.New("timeout")}

	err := c.process(h, &message{
		topic: h.Topic(),
		km:    kafka.Message{Headers: []kafka.Header{{Key: TraceHeader, Value: []byte("abc")}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), h.calls.Load())
	assert.Equal(t, "abc", h.traceID)
}

func TestConsumer_GivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t)
	h := &flakyHandler{failFor: 10, err: errors.New("down")}

	err := c.process(h, &message{topic: h.Topic()})
	require.Error(t, err)
	assert.Equal(t, int32(3), h.calls.Load())
}

func TestConsumer_PermanentErrorsSkipRetry(t *testing.T) {
	c := newTestConsumer(t)
	h := &flakyHandler{failFor: 10, err: Permanent(errors.New("bad payload"))}

	err := c.process(h, &message{topic: h.Topic()})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, int32(1), h.calls.Load())
	assert.Nil(t, Permanent(nil))
}

func TestConsumer_RequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
}

func TestBuildMessages(t *testing.T) {
	msgs, size, err := BuildMessages("events", []Message{
		{Key: []byte("run-1"), Value: map[string]int{"house": 10}, Headers: map[string]string{TraceHeader: "t1"}},
		{Key: []byte("run-1"), Value: "raw"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, `{"house":10}`, string(msgs[0].Value))
	assert.Equal(t, "t1", ExtractTraceID(msgs[0]))
	assert.Equal(t, int64(len(`{"house":10}`)+3), size)
	assert.Equal(t, "events", msgs[1].Topic)
}
