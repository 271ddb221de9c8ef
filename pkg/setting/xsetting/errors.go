package xsetting

import "errors"

var (
	// ErrNilCache Cache 为 nil。
	ErrNilCache = errors.New("xsetting: nil cache")

	// ErrNilStore Store 为 nil。
	ErrNilStore = errors.New("xsetting: nil store")

	// ErrNilQuerier PostgresStore 的查询对象为 nil。
	ErrNilQuerier = errors.New("xsetting: nil querier")

	// ErrNotFound Store 中没有对应的行。
	ErrNotFound = errors.New("xsetting: setting not found")

	// ErrInvalidTenant 租户 ID 不是正数。
	ErrInvalidTenant = errors.New("xsetting: invalid tenant")

	// ErrInvalidKey 不支持的设置项。
	ErrInvalidKey = errors.New("xsetting: invalid key")

	// ErrInvalidValue 设置值为空。
	ErrInvalidValue = errors.New("xsetting: invalid value")

	// ErrDecode 设置值不是合法的 JSON 字符串。
	ErrDecode = errors.New("xsetting: failed to decode value")

	// ErrInvalidCacheConfig 缓存配置无效。
	ErrInvalidCacheConfig = errors.New("xsetting: invalid cache config")

	// ErrPublishFailed 写入成功但广播失败，其他进程在 TTL 到期前可能读到旧值。
	ErrPublishFailed = errors.New("xsetting: publish failed")
)
