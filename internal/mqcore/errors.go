package mqcore

import "errors"

var (
	// ErrNilClient 传入的客户端为空，pkg/mq 下的包直接复用。
	ErrNilClient = errors.New("mq: nil client")

	// ErrNilHandler 消费函数为空。
	ErrNilHandler = errors.New("mq: nil handler")
)
