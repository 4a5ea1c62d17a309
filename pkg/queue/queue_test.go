package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type permanent struct{ error }

func (permanent) Permanent() bool { return true }

type panicJob struct{}

func (panicJob) Type() string                        { return "boom" }
func (panicJob) Handle(context.Context, []byte) error { panic("bad payload") }

type sample struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func newTestQueue(cfg Config) *RedisQueue {
	q := NewRedisQueue(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), cfg)
	q.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	q.ctx = context.Background()
	return q
}

func TestNewMessage(t *testing.T) {
	q := newTestQueue(Config{})
	msg, data, err := q.newMessage("prediction.request", sample{Name: "a", N: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "prediction.request", decoded.Type)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), decoded.EnqueuedAt)

	got, err := ParsePayload[sample](decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "a", N: 2}, *got)

	_, _, err = q.newMessage("", nil)
	assert.Error(t, err)
	_, _, err = q.newMessage("x", []byte("{not json"))
	assert.Error(t, err)
}

func TestNextAttempt(t *testing.T) {
	q := newTestQueue(Config{RetryLimit: 2})

	next, retry := q.nextAttempt(Message{Attempts: 0}, errors.New("transient"))
	assert.True(t, retry)
	assert.Equal(t, 1, next.Attempts)

	_, retry = q.nextAttempt(Message{Attempts: 2}, errors.New("transient"))
	assert.False(t, retry)

	_, retry = q.nextAttempt(Message{}, fmt.Errorf("wrapped: %w", permanent{errors.New("bad")}))
	assert.False(t, retry)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(fmt.Errorf("x: %w", permanent{errors.New("y")})))
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.False(t, IsPermanent(nil))
}

func TestSafeHandleRecoversPanics(t *testing.T) {
	q := newTestQueue(Config{})
	err := q.safeHandle(panicJob{}, Message{Type: "boom"})
	assert.EqualError(t, err, "job panic: bad payload")
}

func TestEnqueueRequiresStart(t *testing.T) {
	q := newTestQueue(Config{})
	_, err := q.Enqueue(context.Background(), "x", sample{})
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.NoError(t, q.Stop(context.Background()))
}

func TestDefaults(t *testing.T) {
	q := NewRedisQueue(redis.NewClient(&redis.Options{}), Config{}, WithKeyPrefix("p"))
	assert.Equal(t, 1, q.config.Workers)
	assert.Equal(t, 10*time.Second, q.config.RetryDelay)
	assert.Equal(t, "p:messages", q.queueKey())
	assert.Equal(t, "p:retry", q.retryKey())
	assert.Equal(t, "p:dlq", q.deadLetterKey())
}
