package xlru

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxSize 条目数上限。
const maxSize = 1 << 24

// Config 缓存配置。
type Config struct {
	// Size 最大条目数，(0, 16777216]。
	Size int

	// TTL 条目存活时间，0 表示永不过期。
	TTL time.Duration
}

// Option 可选配置。
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	onEvicted func(key K, value V)
}

// WithOnEvicted 设置条目移除回调（容量淘汰、过期、Delete、Clear 均会触发）。
// 回调在底层锁内同步执行。
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *options[K, V]) {
		o.onEvicted = fn
	}
}

// Stats 运行计数快照。
type Stats struct {
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Evictions uint64 // 仅统计容量淘汰
	Len       int
}

// Cache 带 TTL 的 LRU 缓存，并发安全。必须通过 New 创建。
// Close 之后读返回零值，写静默忽略。
type Cache[K comparable, V any] struct {
	lru       *expirable.LRU[K, V]
	wmu       sync.Mutex // 串行化写，SetIfAbsent 的检查与写入不被其它写插入
	closed    atomic.Bool
	closeOnce sync.Once

	hits      atomic.Uint64
	misses    atomic.Uint64
	sets      atomic.Uint64
	evictions atomic.Uint64
}

// New 创建缓存。
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	switch {
	case cfg.Size <= 0:
		return nil, ErrInvalidSize
	case cfg.Size > maxSize:
		return nil, ErrSizeExceedsMax
	case cfg.TTL < 0:
		return nil, ErrInvalidTTL
	}

	o := &options[K, V]{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return &Cache[K, V]{
		lru: expirable.NewLRU(cfg.Size, o.onEvicted, cfg.TTL),
	}, nil
}

// Get 返回未过期的值并更新 LRU 顺序。
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	if c.closed.Load() {
		return value, false
	}
	value, ok = c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return value, ok
}

// Peek 同 Get，但不更新 LRU 顺序也不计入命中统计。
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	if c.closed.Load() {
		return value, false
	}
	return c.lru.Peek(key)
}

// Set 写入并刷新 TTL。返回 true 表示本次写入触发了容量淘汰。
func (c *Cache[K, V]) Set(key K, value V) bool {
	if c.closed.Load() {
		return false
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.add(key, value)
}

// SetIfAbsent 仅在 key 不存在（或已过期）时写入，返回是否写入。
func (c *Cache[K, V]) SetIfAbsent(key K, value V) bool {
	if c.closed.Load() {
		return false
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, ok := c.lru.Peek(key); ok {
		return false
	}
	c.add(key, value)
	return true
}

func (c *Cache[K, V]) add(key K, value V) bool {
	c.sets.Add(1)
	evicted := c.lru.Add(key, value)
	if evicted {
		c.evictions.Add(1)
	}
	return evicted
}

// Delete 删除条目，返回 key 是否存在。
func (c *Cache[K, V]) Delete(key K) bool {
	if c.closed.Load() {
		return false
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.lru.Remove(key)
}

// Clear 清空所有条目，计数保留。
func (c *Cache[K, V]) Clear() {
	if c.closed.Load() {
		return
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.lru.Purge()
}

// Len 当前条目数（可能含未清理的过期条目）。
func (c *Cache[K, V]) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.lru.Len()
}

// Stats 返回计数快照。
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.Len(),
	}
}

// Close 清空缓存并停止后台清理 goroutine，幂等。
func (c *Cache[K, V]) Close() {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		c.lru.Purge()
		stopCleanupGoroutine(c.lru)
	})
}

// stopCleanupGoroutine 关闭 expirable.LRU 未导出的 done 通道，让清理 goroutine 退出。
//
// golang-lru v2.0.7 没有公开的 Close。字段名或类型变化时返回 false（goroutine 会泄漏），
// TestStopCleanupGoroutine_UpstreamLayout 负责在升级时发现这种情况。
func stopCleanupGoroutine(lru any) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.IsNil() || done.Type() != reflect.TypeOf(make(chan struct{})) {
		return false
	}

	ch := *(*chan struct{})(unsafe.Pointer(done.UnsafeAddr())) //nolint:gosec // 访问上游未导出字段
	close(ch)
	return true
}
