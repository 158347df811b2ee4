package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blockballot/modules/ledger/client"
	"blockballot/modules/ledger/rpc"

	"github.com/stretchr/testify/assert"
)

func rateLimitErr() error {
	return &client.RPCError{Code: rpc.CodeRateLimited, Message: rpc.RateLimitMessage}
}

func TestDefaultRetrySchedule(t *testing.T) {
	policy := client.DefaultRetryPolicy()

	assert.Equal(t, 3, policy.MaxRetries)
	assert.Equal(t, time.Second, policy.Delay(0))
	assert.Equal(t, 2*time.Second, policy.Delay(1))
	assert.Equal(t, 4*time.Second, policy.Delay(2))
}

func TestRetrySucceedsOnThirdAttempt(t *testing.T) {
	policy := client.RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  50 * time.Millisecond,
		Retryable:  client.IsRateLimited,
	}

	var calls []time.Time
	value, err := client.Retry(context.Background(), policy, func() (string, error) {
		calls = append(calls, time.Now())
		if len(calls) < 3 {
			return "", rateLimitErr()
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Len(t, calls, 3)

	// Backoff doubles: ~1x base before the second call, ~2x before the
	// third.
	firstGap := calls[1].Sub(calls[0])
	secondGap := calls[2].Sub(calls[1])
	assert.GreaterOrEqual(t, firstGap, 45*time.Millisecond)
	assert.Less(t, firstGap, 150*time.Millisecond)
	assert.GreaterOrEqual(t, secondGap, 95*time.Millisecond)
	assert.Less(t, secondGap, 250*time.Millisecond)
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	policy := client.RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Retryable:  client.IsRateLimited,
	}

	calls := 0
	_, err := client.Retry(context.Background(), policy, func() (string, error) {
		calls++
		return "", rateLimitErr()
	})

	assert.Equal(t, 4, calls)
	assert.True(t, client.IsRateLimited(err))
}

func TestRetryDoesNotRetryOtherErrors(t *testing.T) {
	policy := client.DefaultRetryPolicy()

	calls := 0
	_, err := client.Retry(context.Background(), policy, func() (string, error) {
		calls++
		return "", &client.RPCError{Code: rpc.CodeServerError, Message: "unknown contract: 0xabc"}
	})

	assert.Equal(t, 1, calls)
	var rpcErr *client.RPCError
	assert.True(t, errors.As(err, &rpcErr))
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	policy := client.RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Minute,
		Retryable:  client.IsRateLimited,
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := client.Retry(ctx, policy, func() (string, error) {
			calls++
			return "", rateLimitErr()
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on context cancel")
	}
}

func TestIsRateLimitedMatchesMessageShapes(t *testing.T) {
	assert.True(t, client.IsRateLimited(&client.RPCError{Code: rpc.CodeRateLimited, Message: "slow down"}))
	assert.True(t, client.IsRateLimited(&client.RPCError{Code: rpc.CodeServerError, Message: "Rate limit exceeded"}))
	assert.True(t, client.IsRateLimited(&client.RPCError{Code: rpc.CodeServerError, Message: "429 Too Many Requests"}))
	assert.False(t, client.IsRateLimited(&client.RPCError{Code: rpc.CodeServerError, Message: "unknown contract: 0xabc"}))
	assert.False(t, client.IsRateLimited(errors.New("rate limit exceeded")))
}
