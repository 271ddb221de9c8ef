// Package xsetting 提供按租户（guild）划分的设置读取与写入。
//
// 读路径由 Resolver 负责：本地 Cache 命中直接返回；未命中时查询 Store，
// 查询有超时、熔断保护，并按租户合并并发请求。任何依赖故障都降级为默认值，
// Resolve 从不返回错误。
//
// 写路径由 Writer 负责：先写 Store，再通过 Publisher 广播失效消息，
// 最后更新本进程的 Cache。其他进程的 Cache 由 xinval.Listener 应用广播，
// 广播丢失时由条目 TTL 兜底。
//
//	cache, _ := xsetting.NewCache(xsetting.CacheConfig{})
//	resolver, _ := xsetting.NewResolver(cache, xsetting.NewPostgresStore(pool))
//	prefix := resolver.Resolve(ctx, xsetting.TenantID(guildID))
//
// 设置值在 Store 与广播中均以 JSON 编码保存。
package xsetting
