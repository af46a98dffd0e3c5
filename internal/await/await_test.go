package await

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout(t *testing.T) {
	t.Run("Should return the value when fn completes in time", func(t *testing.T) {
		v, outcome, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, OK, outcome)
		assert.Equal(t, 42, v)
	})

	t.Run("Should report TimedOut when fn outlives the deadline", func(t *testing.T) {
		started := time.Now()
		_, outcome, _ := WithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})
		assert.Equal(t, TimedOut, outcome)
		assert.Less(t, time.Since(started), time.Second)
	})

	t.Run("Should report TimedOut at the deadline even when fn ignores cancellation", func(t *testing.T) {
		started := time.Now()
		_, outcome, err := WithTimeout(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
			time.Sleep(2 * time.Second)
			return 1, nil
		})
		assert.Equal(t, TimedOut, outcome)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(started), time.Second)
	})

	t.Run("Should report Failed with the original error", func(t *testing.T) {
		boom := errors.New("boom")
		_, outcome, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
			return 0, boom
		})
		assert.Equal(t, Failed, outcome)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Should honor an already-canceled parent context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, outcome, _ := WithTimeout(ctx, time.Second, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		assert.NotEqual(t, OK, outcome)
	})
}
