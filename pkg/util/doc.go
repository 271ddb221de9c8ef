// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xdebounce: 尾沿去抖，时钟可替换
//   - xlru: LRU 缓存，泛型支持、自动 TTL 过期、命中统计
//
// 设计原则：
//   - 不依赖具体业务类型
//   - 所有类型可并发使用
package util
