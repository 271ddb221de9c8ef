package xretry

import (
	"errors"

	retry "github.com/avast/retry-go/v5"
)

var (
	// ErrNilContext context 为 nil。
	ErrNilContext = errors.New("xretry: nil context")

	// ErrNilFunc 重试函数为 nil。
	ErrNilFunc = errors.New("xretry: nil func")
)

// Permanent 将错误标记为不可重试。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return retry.Unrecoverable(err)
}

// IsPermanent 判断错误是否被 Permanent 标记。
func IsPermanent(err error) bool {
	return err != nil && !retry.IsRecoverable(err)
}
