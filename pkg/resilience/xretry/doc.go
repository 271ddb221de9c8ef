// Package xretry 提供退避策略与基于 avast/retry-go 的重试执行器。
//
// 两个使用方：
//   - internal/mqcore 的消费循环用 BackoffPolicy 计算重订阅间隔
//   - 启动阶段的 Redis/Postgres 连通性检查用 Retryer 做有限次重试
//
// 用法：
//
//	r := xretry.NewRetryer(xretry.WithAttempts(3))
//	err := r.Do(ctx, func(ctx context.Context) error {
//		return client.Ping(ctx).Err()
//	})
//
// 用 Permanent 包装的错误不会重试。
package xretry
