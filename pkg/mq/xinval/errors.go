package xinval

import (
	"errors"

	"github.com/omeyang/xshard/internal/mqcore"
)

var (
	// ErrNilClient Redis 客户端为 nil。
	ErrNilClient = mqcore.ErrNilClient

	// ErrNilBus Bus 为 nil。
	ErrNilBus = errors.New("xinval: nil bus")

	// ErrNilCache Cache 为 nil。
	ErrNilCache = errors.New("xinval: nil cache")

	// ErrMalformed 消息格式错误。
	ErrMalformed = errors.New("xinval: malformed message")

	// ErrNotSubscribed 订阅未被服务端确认。
	ErrNotSubscribed = errors.New("xinval: subscription not confirmed")

	// ErrRunning Listener 已在运行。
	ErrRunning = errors.New("xinval: listener already running")
)
