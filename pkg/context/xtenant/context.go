package xtenant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// KeyTenantID 日志与传输中使用的租户字段名。
const KeyTenantID = "tenant_id"

type tenantKey struct{}

// WithTenantID 将租户 ID 注入 context。
//
// id 必须为正数，否则返回 ErrInvalidTenant。
func WithTenantID(ctx context.Context, id int64) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if id <= 0 {
		return ctx, ErrInvalidTenant
	}
	return context.WithValue(ctx, tenantKey{}, id), nil
}

// TenantID 从 context 获取租户 ID。
// 第二个返回值为 false 表示请求没有租户上下文。
func TenantID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(tenantKey{}).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// RequireTenantID 从 context 获取租户 ID，不存在则返回 ErrMissingTenant。
//
// 用于必须存在租户的调用路径，缺失属于调用方 bug 而非环境问题。
func RequireTenantID(ctx context.Context) (int64, error) {
	id, ok := TenantID(ctx)
	if !ok {
		return 0, ErrMissingTenant
	}
	return id, nil
}

// Parse 解析十进制租户 ID 字符串。
func Parse(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTenant, s)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTenant, id)
	}
	return id, nil
}

// AppendAttrs 将 context 中的租户信息追加到 attrs。
// 没有租户时原样返回，不分配内存。
func AppendAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if id, ok := TenantID(ctx); ok {
		attrs = append(attrs, slog.Int64(KeyTenantID, id))
	}
	return attrs
}
