package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrNilFunc 被保护的函数为 nil。
	ErrNilFunc = errors.New("xbreaker: function cannot be nil")

	// ErrNilBreaker Breaker 为 nil。
	ErrNilBreaker = errors.New("xbreaker: breaker cannot be nil")
)

// BreakerError 熔断器拦截错误，Err 为 gobreaker.ErrOpenState 或 ErrTooManyRequests。
type BreakerError struct {
	Err   error
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

func (e *BreakerError) Unwrap() error { return e.Err }

// wrapBreakerError 只包装直接的 gobreaker sentinel，状态从错误推导而非事后查询。
func wrapBreakerError(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case err == gobreaker.ErrOpenState: //nolint:errorlint // 只匹配本熔断器直接返回的 sentinel
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case err == gobreaker.ErrTooManyRequests: //nolint:errorlint // 同上
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 熔断器处于打开状态。
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsBreakerError 请求被熔断器拦截（打开或半开限流）。
func IsBreakerError(err error) bool {
	return IsOpen(err) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
