package xcache

import "errors"

var (
	// ErrNilClient 传入的客户端为 nil。
	ErrNilClient = errors.New("xcache: nil client")

	// ErrClosed 客户端已关闭。
	ErrClosed = errors.New("xcache: closed")

	// ErrInvalidConfig 连接参数无效。
	ErrInvalidConfig = errors.New("xcache: invalid configuration")

	// ErrUnavailable 重试后仍无法连接。
	ErrUnavailable = errors.New("xcache: redis unavailable")
)
