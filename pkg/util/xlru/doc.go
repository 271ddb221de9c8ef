// Package xlru 提供带绝对 TTL 的泛型 LRU 缓存。
//
// 基于 github.com/hashicorp/golang-lru/v2/expirable 封装，额外提供
// 命中/未命中/淘汰计数与幂等 Close。
//
// 语义：
//   - TTL 从 Set 时刻开始计算，Get 不刷新 TTL；Set 覆盖已有 key 会刷新
//   - 容量满时淘汰最久未访问的条目，淘汰不报错，只计入 Stats
//   - Len 可能包含已过期但尚未被后台清理的条目
//   - 淘汰回调在底层锁内执行，回调中不能调用 Cache 自身方法
//
// TTL > 0 时底层会启动清理 goroutine，用完必须 Close。
package xlru
