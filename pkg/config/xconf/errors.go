package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置文件失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrInvalidOwners Owners 段格式错误。
	ErrInvalidOwners = errors.New("xconf: invalid owners section")

	// ErrNotFound 路径不存在。
	ErrNotFound = errors.New("xconf: key not found")

	// ErrTypeMismatch 值的类型与访问方法不符。
	ErrTypeMismatch = errors.New("xconf: type mismatch")

	// ErrInvalidIdentity 身份 ID 缺失或非正数。
	ErrInvalidIdentity = errors.New("xconf: invalid identity")

	// ErrUnmarshalFailed 反序列化失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNilStore Watcher 的 Store 为 nil。
	ErrNilStore = errors.New("xconf: nil store")

	// ErrWatcherRunning Watcher 已在运行。
	ErrWatcherRunning = errors.New("xconf: watcher already running")

	// ErrWatcherStopped Watcher 已停止，不能再启动。
	ErrWatcherStopped = errors.New("xconf: watcher stopped")
)
