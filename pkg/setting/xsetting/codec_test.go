package xsetting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValue(t *testing.T) {
	raw, err := EncodeValue("!")
	require.NoError(t, err)
	assert.JSONEq(t, `"!"`, string(raw))

	raw, err = EncodeValue(`say "hi"`)
	require.NoError(t, err)
	v, ok, err := DecodeValue(raw)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Value(`say "hi"`), v)
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Value
		ok      bool
		wantErr bool
	}{
		{name: "string", raw: `"?"`, want: "?", ok: true},
		{name: "unicode", raw: `"é!"`, want: "é!", ok: true},
		{name: "padded", raw: " \"$\" \n", want: "$", ok: true},
		{name: "empty input", raw: ""},
		{name: "null", raw: "null"},
		{name: "empty string", raw: `""`},
		{name: "number", raw: "42", wantErr: true},
		{name: "bare word", raw: "bad", wantErr: true},
		{name: "object", raw: `{"a":1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := DecodeValue([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDecode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestKeyAndTenant(t *testing.T) {
	assert.True(t, KeyPrefix.Valid())
	assert.False(t, Key("color").Valid())
	assert.False(t, NoTenant.Valid())
	assert.True(t, TenantID(42).Valid())
	assert.Equal(t, "42", TenantID(42).String())
}
