package retry

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		RetryIf:      func(err error) bool { return errors.Is(err, errTransient) },
	}
}

func TestRetryWithContext_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryWithContext(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithContext_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	err := RetryWithContext(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	}, fastConfig())

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, permanent)
}

func TestRetryWithContext_MaxAttempts(t *testing.T) {
	calls := 0
	err := RetryWithContext(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	}, fastConfig())

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestRetryWithContext_DelayForOverridesRetryIf(t *testing.T) {
	rateLimited := errors.New("too many requests")
	cfg := fastConfig()
	cfg.DelayFor = func(err error) (time.Duration, bool) {
		if errors.Is(err, rateLimited) {
			return time.Hour, true
		}
		return 0, false
	}
	var delays []time.Duration
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	}

	calls := 0
	err := RetryWithContext(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return rateLimited
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	// capped by MaxDelay
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, delays)
}

func TestRetryWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithContext(ctx, func(ctx context.Context) error {
		calls++
		return nil
	}, fastConfig())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestNetworkRetryIf(t *testing.T) {
	assert.True(t, NetworkRetryIf(context.DeadlineExceeded))
	assert.True(t, NetworkRetryIf(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.False(t, NetworkRetryIf(context.Canceled))
	assert.False(t, NetworkRetryIf(errors.New("Bad Request: message is not modified")))
}
