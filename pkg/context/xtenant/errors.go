package xtenant

import "errors"

var (
	// ErrMissingTenant 表示 context 中没有租户 ID。
	ErrMissingTenant = errors.New("xtenant: missing tenant_id")

	// ErrInvalidTenant 表示租户 ID 不是正整数。
	ErrInvalidTenant = errors.New("xtenant: tenant_id must be positive")

	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xtenant: nil context")
)
