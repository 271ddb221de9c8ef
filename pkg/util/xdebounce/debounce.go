package xdebounce

import (
	"sync"
	"sync/atomic"
	"time"
)

// Option 配置函数。
type Option func(*Debouncer)

// WithClock 替换计时器实现，nil 被忽略。
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// Debouncer 防抖器，并发安全。
type Debouncer struct {
	delay time.Duration
	fn    func()
	clock Clock

	mu      sync.Mutex
	timer   Timer
	gen     uint64 // 每次 Trigger 递增，过期的计时器回调据此放弃执行
	stopped bool
	fired   atomic.Uint64
}

// New 创建防抖器。
func New(delay time.Duration, fn func(), opts ...Option) (*Debouncer, error) {
	if delay <= 0 {
		return nil, ErrInvalidDelay
	}
	if fn == nil {
		return nil, ErrNilFunc
	}
	d := &Debouncer{delay: delay, fn: fn, clock: realClock{}}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Trigger 重置计时器。Stop 之后调用无效果。
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire 只执行最新一代的回调。
// Stop 返回 false 的旧计时器可能已在排队，靠 gen 比较丢弃。
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fired.Add(1)
	d.fn()
}

// Pending 是否有等待执行的回调。
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Fired 返回回调已执行的次数。
func (d *Debouncer) Fired() uint64 {
	return d.fired.Load()
}

// Stop 取消等待中的回调，之后的 Trigger 都被忽略。可重复调用。
//
// 正在执行的 fn 不会被打断，Stop 返回后不会再有新的执行开始。
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
