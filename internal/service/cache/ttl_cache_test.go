package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()

	require.NoError(t, c.SetBytes(ctx, "forever", []byte("a"), 0))
	require.NoError(t, c.SetBytes(ctx, "brief", []byte("b"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	b, ok, err := c.GetBytes(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), b)

	_, ok, err = c.GetBytes(ctx, "brief")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}
