// Package xtenant 提供租户 ID 在 context 中的传播。
//
// 租户（tenant）是独立配置的单元，例如一个 guild。租户 ID 是不可变的正整数。
// 请求没有租户上下文（如私聊消息）是正常情况，TenantID 返回 false 即可；
// 只有业务上必须存在租户时才使用 RequireTenantID，缺失时返回 ErrMissingTenant。
//
// 日志集成：xlog 的 EnrichHandler 通过 Attrs 自动注入 tenant_id 字段。
package xtenant
