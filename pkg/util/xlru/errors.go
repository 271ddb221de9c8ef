package xlru

import "errors"

var (
	// ErrInvalidSize Size <= 0。
	ErrInvalidSize = errors.New("xlru: invalid size")
	// ErrSizeExceedsMax Size 超过 1<<24。
	ErrSizeExceedsMax = errors.New("xlru: size exceeds max")
	// ErrInvalidTTL TTL 为负。
	ErrInvalidTTL = errors.New("xlru: negative ttl")
)
