package xlog

import (
	"io"
	"log/slog"
	"sync/atomic"
)

// Discard 返回丢弃所有输出的 Logger，常用作组件的默认 logger 和测试。
func Discard() LoggerWithLevel {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelError + 4)
	return &xlogger{
		handler:        slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}),
		levelVar:       levelVar,
		errorCount:     new(atomic.Uint64),
		inErrorHandler: new(atomic.Bool),
	}
}
