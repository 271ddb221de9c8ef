// Package mq 提供消息传递相关的子包。
//
// 子包列表：
//   - xinval: 基于 Redis pub/sub 的设置失效广播与监听
//
// 内部包：
//   - internal/mqcore: 共享的消费循环与退避
//
// 设计原则：
//   - 广播是尽力而为的，缓存 TTL 兜底
//   - 断线自动重订阅，重订阅后清空本地缓存
//   - 内置可观测性（指标、日志、追踪）
package mq
