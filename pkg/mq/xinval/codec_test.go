package xinval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xshard/pkg/setting/xsetting"
)

func TestEncode(t *testing.T) {
	s, err := Encode(42, "!")
	require.NoError(t, err)
	assert.Equal(t, `42:"!"`, s)

	s, err = Encode(7, `a"b`)
	require.NoError(t, err)
	assert.Equal(t, `7:"a\"b"`, s)

	_, err = Encode(xsetting.NoTenant, "!")
	assert.ErrorIs(t, err, xsetting.ErrInvalidTenant)
}

func TestDecode(t *testing.T) {
	u, err := Decode(`42:"!"`)
	require.NoError(t, err)
	assert.Equal(t, Update{Tenant: 42, Key: xsetting.KeyPrefix, Value: "!"}, u)

	// 值中的冒号属于值本身
	u, err = Decode(`9:"a:b"`)
	require.NoError(t, err)
	assert.Equal(t, xsetting.Value("a:b"), u.Value)
}

func TestDecode_Malformed(t *testing.T) {
	for _, payload := range []string{
		`abc:bad`,
		`42`,
		`:"!"`,
		`-1:"!"`,
		`0:"!"`,
		` 42:"!"`,
		`42:!`,
		`42:null`,
		`42:""`,
		`42:7`,
	} {
		_, err := Decode(payload)
		assert.ErrorIs(t, err, ErrMalformed, payload)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "subscribed", StateSubscribed.String())
	assert.Equal(t, "shutting_down", StateShuttingDown.String())
	assert.Equal(t, "unknown", State(9).String())
}
