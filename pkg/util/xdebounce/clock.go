package xdebounce

import "time"

// Timer 可停止的一次性计时器。
type Timer interface {
	// Stop 阻止计时器触发，返回 false 表示已经触发或已停止。
	Stop() bool
}

// Clock 计时器工厂。
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock 返回基于 time.AfterFunc 的时钟。
func RealClock() Clock { return realClock{} }
