package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 9000, Database: "horacle", User: "default"}
	assert.Equal(t, "clickhouse://default:@ch:9000/horacle", buildDSN(cfg))

	for _, opt := range []ClientOption{
		WithHTTP(true),
		WithTimeouts(2*time.Second, 3*time.Second, time.Second),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(30 * time.Second),
	} {
		opt(&cfg)
	}
	assert.Equal(t,
		"clickhouse+http://default:@ch:9000/horacle?async_insert=1&dial_timeout=2s&max_execution_time=30&read_timeout=3s&wait_for_async_insert=1",
		buildDSN(cfg))
}

func TestBuildDSN_EscapesCredentials(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 8123, Database: "horacle", User: "svc", Password: "p@ss/word"}
	assert.Equal(t, "clickhouse://svc:p%40ss%2Fword@ch:8123/horacle", buildDSN(cfg))
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.EqualError(t, err, "host is required")
}
