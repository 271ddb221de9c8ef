// Package xinval 通过 Redis pub/sub 在分片进程间广播设置变更。
//
// 消息格式为 "<tenant_id>:<json 编码的值>"，例如 `42:"!"`，频道默认为
// prefix_updates。投递语义为至多一次：断线期间的消息会丢失，由本地缓存的
// TTL 兜底；Listener 在断线重连后会清空本地缓存，缩短不一致窗口。
//
// Bus.Subscribe 返回 iter.Seq[Update]，断线后按指数退避重新订阅，
// 格式错误的消息记录日志后跳过。Listener.Run 消费该序列并按接收顺序
// 写入 xsetting.Cache。
//
//	bus, _ := xinval.NewBus(redisClient, xinval.WithLogger(logger))
//	listener, _ := xinval.NewListener(bus, cache)
//	go listener.Run(ctx)
//
//	_ = bus.Publish(ctx, 42, "!")
package xinval
