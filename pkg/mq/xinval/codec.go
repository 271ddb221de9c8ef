package xinval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/omeyang/xshard/pkg/setting/xsetting"
)

// Update 一条设置变更。重复应用结果相同。
type Update struct {
	Tenant xsetting.TenantID
	Key    xsetting.Key
	Value  xsetting.Value
}

// Encode 编码为 "<tenant>:<json>"。
func Encode(tenant xsetting.TenantID, value xsetting.Value) (string, error) {
	if !tenant.Valid() {
		return "", fmt.Errorf("%w: tenant %d", xsetting.ErrInvalidTenant, tenant)
	}
	raw, err := xsetting.EncodeValue(value)
	if err != nil {
		return "", err
	}
	return tenant.String() + ":" + string(raw), nil
}

// Decode 解析消息。租户部分必须是正的十进制整数，值部分必须是非空 JSON 字符串。
func Decode(payload string) (Update, error) {
	head, tail, ok := strings.Cut(payload, ":")
	if !ok {
		return Update{}, fmt.Errorf("%w: missing separator", ErrMalformed)
	}
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil || id <= 0 {
		return Update{}, fmt.Errorf("%w: tenant %q", ErrMalformed, head)
	}
	value, ok, err := xsetting.DecodeValue([]byte(tail))
	if err != nil {
		return Update{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !ok {
		return Update{}, fmt.Errorf("%w: empty value", ErrMalformed)
	}
	return Update{Tenant: xsetting.TenantID(id), Key: xsetting.KeyPrefix, Value: value}, nil
}
