package xlog

import (
	"os"
	"sync"
	"sync/atomic"
)

var (
	defaultLogger atomic.Pointer[LoggerWithLevel]
	defaultOnce   sync.Once
)

// Default 返回全局 Logger。未设置时惰性创建 stderr text logger。
func Default() LoggerWithLevel {
	if p := defaultLogger.Load(); p != nil {
		return *p
	}
	defaultOnce.Do(func() {
		logger, _, err := New().SetOutput(os.Stderr).Build()
		if err != nil {
			return
		}
		defaultLogger.CompareAndSwap(nil, &logger)
	})
	if p := defaultLogger.Load(); p != nil {
		return *p
	}
	return Discard()
}

// SetDefault 替换全局 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	defaultLogger.Store(&l)
}

// ResetDefault 清除全局 Logger，仅用于测试。
func ResetDefault() {
	defaultLogger.Store(nil)
	defaultOnce = sync.Once{}
}
