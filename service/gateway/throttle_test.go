package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleAllowsUnderLimit(t *testing.T) {
	th := NewAuthThrottle(5, 15*time.Minute)

	for i := 0; i < 4; i++ {
		th.Fail("10.0.0.1")
	}
	require.True(t, th.Allow("10.0.0.1"))
	require.Equal(t, 4, th.Attempts("10.0.0.1"))
}

func TestThrottleBlocksAtLimit(t *testing.T) {
	th := NewAuthThrottle(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		th.Fail("10.0.0.1")
	}
	require.False(t, th.Allow("10.0.0.1"))
	// other addresses are unaffected
	require.True(t, th.Allow("10.0.0.2"))
}

func TestThrottleResetOnSuccess(t *testing.T) {
	th := NewAuthThrottle(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		th.Fail("10.0.0.1")
	}
	th.Reset("10.0.0.1")
	require.True(t, th.Allow("10.0.0.1"))
	require.Equal(t, 0, th.Attempts("10.0.0.1"))
}

func TestThrottleWindowExpiry(t *testing.T) {
	now := time.Now()
	th := NewAuthThrottle(5, 15*time.Minute)
	th.clock = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		th.Fail("10.0.0.1")
	}
	require.False(t, th.Allow("10.0.0.1"))

	// window elapses, entry is evicted
	now = now.Add(15*time.Minute + time.Second)
	require.True(t, th.Allow("10.0.0.1"))
	require.Equal(t, 0, th.Attempts("10.0.0.1"))

	// next failure starts a fresh window
	th.Fail("10.0.0.1")
	require.Equal(t, 1, th.Attempts("10.0.0.1"))
}
