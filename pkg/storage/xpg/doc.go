// Package xpg 提供 PostgreSQL 连接池工厂（pgx v5）。
//
// Open 从 DATABASE_URL 风格的连接串或分离的 DB_* 字段组装配置，
// 建池后 Ping（xretry 重试），并为每条查询挂上 OpenTelemetry 追踪。
// EnsureSchema 创建 guild_settings 表，可重复执行。
package xpg
