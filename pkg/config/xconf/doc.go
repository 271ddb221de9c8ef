// Package xconf 提供可热更新的配置存储。
//
// Store 持有一个不可变的 Document 快照，加载串行执行，成功后通过一次
// atomic.Pointer 交换对读者可见：读者要么看到完整的旧版本，要么看到完整的
// 新版本，不会看到混合状态。加载失败时保留旧快照，错误只记录日志并返回给
// Load 的调用方，读者永远拿不到错误。
//
// Watcher 监视配置文件所在目录（编辑器常用"写临时文件再 rename"的方式保存），
// 按清理后的完整路径匹配目标文件，事件经 xdebounce 合并后调用 Store.Reload。
//
// 支持 YAML（.yaml/.yml）与 JSON（.json），底层使用 koanf。
//
//	store, err := xconf.New("configs/config.yaml", xconf.WithLogger(logger))
//	if err != nil {
//		return err // 首次加载失败直接退出
//	}
//	w, err := xconf.NewWatcher(store)
//	if err != nil {
//		return err
//	}
//	defer w.Stop()
//	w.StartAsync()
//
//	ok, err := store.IsOwner(userID)
//
// # Owners
//
// 顶层 Owners 段是"名称 → 数字 ID"的映射。每次成功加载都会重新计算
// Owners() 视图，按名称排序以保证顺序稳定。ID 可以写成整数或十进制字符串；
// JSON 中超过 2^53 的 ID 必须写成字符串，否则会丢失精度。
package xconf
