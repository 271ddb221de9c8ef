package xsetting

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeValue 将设置值编码为 JSON 字符串。
func EncodeValue(v Value) ([]byte, error) {
	data, err := json.Marshal(string(v))
	if err != nil {
		return nil, fmt.Errorf("xsetting: encode value: %w", err)
	}
	return data, nil
}

// DecodeValue 解码 JSON 字符串。
//
// 空内容、JSON null 和空字符串返回 ("", false, nil)，表示"未设置"。
// 其他非字符串 JSON 返回 ErrDecode。
func DecodeValue(raw []byte) (Value, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if s == "" {
		return "", false, nil
	}
	return Value(s), true, nil
}
