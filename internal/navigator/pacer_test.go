package navigator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRandomPacerStaysWithinBounds(t *testing.T) {
	pacer := NewRandomPacer(time.Millisecond, 5*time.Millisecond)

	for range 5 {
		start := time.Now()
		require.NoError(t, pacer.Pause(context.Background(), 0))
		require.GreaterOrEqual(t, time.Since(start), time.Millisecond)
	}
}

func TestRandomPacerAddsExtra(t *testing.T) {
	pacer := NewRandomPacer(0, 0)

	start := time.Now()
	require.NoError(t, pacer.Pause(context.Background(), 10*time.Millisecond))
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRandomPacerSwappedBounds(t *testing.T) {
	pacer := NewRandomPacer(2*time.Millisecond, time.Millisecond).(*randomPacer)
	require.Equal(t, pacer.min, pacer.max)
}

func TestPauseReturnsOnCancel(t *testing.T) {
	pacer := NewRandomPacer(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pacer.Pause(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}
