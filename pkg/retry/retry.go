package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"
)

// RetryableFuncWithContext 表示可以使用上下文重试的函数
type RetryableFuncWithContext func(ctx context.Context) error

// Config 保存重试配置
type Config struct {
	MaxAttempts  int           // 最大尝试次数
	InitialDelay time.Duration // 首次重试前的延迟
	MaxDelay     time.Duration // 单次延迟上限
	Jitter       bool          // 为延迟添加随机抖动
	RetryIf      func(error) bool
	// DelayFor lets the remote side dictate the wait, e.g. a rate limit's retry_after.
	DelayFor func(error) (time.Duration, bool)
	OnRetry  func(attempt int, err error, delay time.Duration)
}

// DefaultConfig 返回默认的重试配置
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Jitter:       true,
		RetryIf:      NetworkRetryIf,
	}
}

// RetryWithContext 使用重试逻辑和上下文支持执行函数
func RetryWithContext(ctx context.Context, fn RetryableFuncWithContext, config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		delay, dictated := time.Duration(0), false
		if config.DelayFor != nil {
			delay, dictated = config.DelayFor(err)
		}
		if !dictated && config.RetryIf != nil && !config.RetryIf(err) {
			return err
		}

		// 最后一次尝试后不延迟
		if attempt == attempts {
			break
		}

		if !dictated {
			delay = config.backoff(attempt)
		}
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt, err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded, last error: %w", attempts, lastErr)
}

// backoff 指数退避
func (c *Config) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.InitialDelay) * math.Pow(2, float64(attempt-1)))
	if c.Jitter && delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay)/4 + 1))
	}
	return delay
}

// NetworkRetryIf retries timeouts and other transient network failures.
func NetworkRetryIf(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
