package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xshard/pkg/context/xtenant"
)

// 常用字段名。
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyTenantID  = xtenant.KeyTenantID
	KeyInstance  = "instance"
)

// Err 错误属性。err 为 nil 时返回空属性，slog 会忽略它。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 操作名属性。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Duration 耗时属性。
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Count 计数属性。
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Tenant 显式的租户属性，用于 context 中没有租户的场景（如后台消费）。
func Tenant(id int64) slog.Attr {
	return slog.Int64(KeyTenantID, id)
}
