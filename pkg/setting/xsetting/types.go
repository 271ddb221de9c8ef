package xsetting

import "strconv"

// TenantID 租户标识。
type TenantID int64

// NoTenant 表示没有租户上下文（例如私聊）。
const NoTenant TenantID = 0

// Valid 是否为有效租户。
func (t TenantID) Valid() bool { return t > 0 }

func (t TenantID) String() string { return strconv.FormatInt(int64(t), 10) }

// Key 设置项名称，取值为封闭集合。
type Key string

// KeyPrefix 命令前缀。
const KeyPrefix Key = "prefix"

// Valid 是否为已知设置项。
func (k Key) Valid() bool {
	switch k {
	case KeyPrefix:
		return true
	default:
		return false
	}
}

// Value 解码后的设置值。
type Value string

// DefaultPrefix 租户未设置前缀时使用的默认值。
const DefaultPrefix Value = "o!"

func (v Value) String() string { return string(v) }
