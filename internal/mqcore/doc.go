// Package mqcore 提供消息订阅端的共享核心功能。
//
// 本包是 internal 包，仅供 pkg/mq 下的包使用。
//
// 主要功能：
//   - RunConsumeLoop：基于 xretry.BackoffPolicy 的消费循环，传输失败后退避重连
//   - 共享错误定义（ErrNilClient 由 xinval 复用）
package mqcore
