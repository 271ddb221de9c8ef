package xsetting

import (
	"fmt"
	"time"

	"github.com/omeyang/xshard/pkg/util/xlru"
)

const (
	// DefaultCacheSize 默认最大条目数。
	DefaultCacheSize = 1000
	// DefaultCacheTTL 默认条目存活时间，从写入时刻计算。
	DefaultCacheTTL = time.Hour
)

// CacheConfig 缓存配置，零值字段使用默认值。
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type cacheKey struct {
	tenant TenantID
	key    Key
}

// CacheStats 缓存计数快照。
type CacheStats = xlru.Stats

// Cache 进程内设置缓存：LRU 淘汰加绝对 TTL，并发安全。
// 未命中不是错误，淘汰静默发生，只体现在 Stats 中。
type Cache struct {
	lru *xlru.Cache[cacheKey, Value]
}

// NewCache 创建缓存。
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.Size == 0 {
		cfg.Size = DefaultCacheSize
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultCacheTTL
	}
	lru, err := xlru.New[cacheKey, Value](xlru.Config{Size: cfg.Size, TTL: cfg.TTL})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCacheConfig, err)
	}
	return &Cache{lru: lru}, nil
}

// Get 返回未过期的值。
func (c *Cache) Get(tenant TenantID, key Key) (Value, bool) {
	return c.lru.Get(cacheKey{tenant, key})
}

// Set 写入并重新计算过期时间。
func (c *Cache) Set(tenant TenantID, key Key, value Value) {
	c.lru.Set(cacheKey{tenant, key}, value)
}

// SetIfAbsent 仅在没有未过期条目时写入，返回是否写入。
// 用于回填查询结果，不覆盖查询期间到达的更新。
func (c *Cache) SetIfAbsent(tenant TenantID, key Key, value Value) bool {
	return c.lru.SetIfAbsent(cacheKey{tenant, key}, value)
}

// Delete 删除条目，返回条目是否存在。
func (c *Cache) Delete(tenant TenantID, key Key) bool {
	return c.lru.Delete(cacheKey{tenant, key})
}

// Clear 清空全部条目。
func (c *Cache) Clear() { c.lru.Clear() }

// Len 当前条目数。
func (c *Cache) Len() int { return c.lru.Len() }

// Stats 命中、未命中、写入与容量淘汰计数。
func (c *Cache) Stats() CacheStats { return c.lru.Stats() }

// Close 释放缓存，之后的读返回未命中，写被忽略。
func (c *Cache) Close() { c.lru.Close() }
