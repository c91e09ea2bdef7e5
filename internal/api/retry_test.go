package api_test

import (
	"testing"
	"time"

	"github.com/mbjorn/econgrab/internal/api"
	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	t.Parallel()

	policy := api.DefaultRetryPolicy()

	tests := []struct {
		status    int
		retryable bool
	}{
		{status: 200, retryable: false},
		{status: 400, retryable: false},
		{status: 404, retryable: false},
		{status: 429, retryable: true},
		{status: 500, retryable: true},
		{status: 502, retryable: true},
		{status: 503, retryable: true},
	}
	for _, test := range tests {
		require.Equal(t, test.retryable, policy.Retryable(test.status), "status %d", test.status)
	}
}

func TestDelay(t *testing.T) {
	t.Parallel()

	t.Run("exponential schedule doubles per attempt", func(t *testing.T) {
		t.Parallel()

		policy := api.RetryPolicy{
			MaxAttempts: 5,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		}

		require.Equal(t, 1*time.Second, policy.Delay(1, ""))
		require.Equal(t, 2*time.Second, policy.Delay(2, ""))
		require.Equal(t, 4*time.Second, policy.Delay(3, ""))
		require.Equal(t, 8*time.Second, policy.Delay(4, ""))
	})

	t.Run("capped at max delay", func(t *testing.T) {
		t.Parallel()

		policy := api.RetryPolicy{
			MaxAttempts: 10,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		}

		require.Equal(t, 5*time.Second, policy.Delay(8, ""))
	})

	t.Run("retry-after seconds takes precedence", func(t *testing.T) {
		t.Parallel()

		policy := api.DefaultRetryPolicy()

		require.Equal(t, 1*time.Second, policy.Delay(3, "1"))
		require.Equal(t, 7*time.Second, policy.Delay(1, "7"))
	})

	t.Run("retry-after HTTP date uses the policy clock", func(t *testing.T) {
		t.Parallel()

		now, err := time.Parse(time.RFC1123, "Wed, 21 Oct 2015 07:28:00 GMT")
		require.NoError(t, err)

		policy := api.DefaultRetryPolicy()
		policy.Now = func() time.Time { return now }

		require.Equal(t, 10*time.Second, policy.Delay(1, "Wed, 21 Oct 2015 07:28:10 GMT"))
		require.Equal(t, time.Duration(0), policy.Delay(1, "Wed, 21 Oct 2015 07:27:00 GMT"))
	})

	t.Run("unparsable retry-after falls back to the schedule", func(t *testing.T) {
		t.Parallel()

		policy := api.RetryPolicy{
			MaxAttempts: 5,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		}

		require.Equal(t, 2*time.Second, policy.Delay(1, "soon"))
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		t.Parallel()

		policy := api.RetryPolicy{
			MaxAttempts: 5,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
			Jitter:      0.5,
		}

		for range 20 {
			delay := policy.Delay(1, "")
			require.GreaterOrEqual(t, delay, 1*time.Second)
			require.LessOrEqual(t, delay, 1500*time.Millisecond)
		}
	})
}
