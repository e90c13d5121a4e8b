package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idmanager/internal/cache"
)

func TestLimiter_FixedWindow(t *testing.T) {
	c := cache.NewMemory("test")
	l := NewLimiter(c, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d should pass", i+1)
		require.Equal(t, int64(2-i), res.Remaining)
	}

	res, err := l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, time.Minute, res.RetryAfter)

	// otra clave no comparte ventana
	res, err = l.Allow(ctx, "ip:5.6.7.8")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestLimiter_ZeroLimitDisables(t *testing.T) {
	c := cache.NewMemory("test")
	l := NewLimiter(c, 0, time.Minute)

	for i := 0; i < 10; i++ {
		res, err := l.Allow(context.Background(), "ip:1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
}
