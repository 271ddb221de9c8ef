// Package xcache 提供 Redis 客户端工厂。
//
// xcache 不包装 go-redis 的 API，只负责：
//   - 从 URL 或 host/port/password 组装连接参数
//   - 连接时的 Ping 重试（xretry）
//   - 幂等的 Close
//
// 业务代码通过 Client() 直接使用 redis.UniversalClient。
//
//	r, err := xcache.Open(ctx, xcache.RedisConfig{URL: os.Getenv("REDIS_URL")})
//	if err != nil {
//		// Redis 不可用时调用方自行决定降级
//	}
//	defer r.Close()
//	r.Client().Publish(ctx, "prefix_updates", payload)
//
// # 连接参数
//
// URL 非空时优先使用（redis:// 或 rediss://），否则使用 Host/Port/Password/DB。
// 连接超时默认 1 秒。
package xcache
