// Package context 提供上下文与身份管理相关的子包。
//
// 子包列表：
//   - xtenant: 租户（guild）ID 在 context 中的注入与提取
//
// 设计原则：
//   - 所有上下文信息通过 context.Context 传递，不使用全局变量
//   - 缺失租户是正常情况（如私聊消息），由调用方决定降级策略
package context
