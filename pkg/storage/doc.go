// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xcache: Redis 客户端工厂，连接参数与启动期重试
//   - xpg: Postgres 连接池与设置表初始化
//
// 设计原则：
//   - 启动期连接失败可重试，运行期错误交给调用方降级
//   - 查询自动挂载 OpenTelemetry 追踪
package storage
