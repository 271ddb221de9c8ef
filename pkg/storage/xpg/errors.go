package xpg

import "errors"

var (
	// ErrInvalidConfig 连接参数无效。
	ErrInvalidConfig = errors.New("xpg: invalid configuration")

	// ErrUnavailable 重试后仍无法连接。
	ErrUnavailable = errors.New("xpg: database unavailable")

	// ErrNilExecer EnsureSchema 的执行对象为 nil。
	ErrNilExecer = errors.New("xpg: nil execer")
)
