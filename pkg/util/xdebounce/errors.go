package xdebounce

import "errors"

var (
	// ErrInvalidDelay delay 必须为正数。
	ErrInvalidDelay = errors.New("xdebounce: delay must be positive")

	// ErrNilFunc 回调不能为 nil。
	ErrNilFunc = errors.New("xdebounce: fn is nil")
)
