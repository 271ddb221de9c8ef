package xconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
Owners:
  zed: 300
  alice: 100
  bob: "200"
bot:
  prefix: "o!"
  shards: 4
  debug: true
`

func parseYAML(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := parseDocument([]byte(data), FormatYAML, defaultOptions())
	require.NoError(t, err)
	return doc
}

func TestDocument_Owners(t *testing.T) {
	doc := parseYAML(t, sampleYAML)

	assert.Equal(t, []Owner{
		{Name: "alice", ID: 100},
		{Name: "bob", ID: 200},
		{Name: "zed", ID: 300},
	}, doc.Owners())
	assert.Equal(t, []int64{100, 200, 300}, doc.OwnerIDs())

	ok, err := doc.IsOwner(200)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = doc.IsOwner(999)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = doc.IsOwner(0)
	assert.ErrorIs(t, err, ErrInvalidIdentity)
	_, err = doc.IsOwner(-5)
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestDocument_OwnersReturnsCopy(t *testing.T) {
	doc := parseYAML(t, sampleYAML)
	owners := doc.Owners()
	owners[0].ID = 1

	assert.Equal(t, int64(100), doc.Owners()[0].ID)
}

func TestDocument_MissingOwnersIsEmpty(t *testing.T) {
	doc := parseYAML(t, "bot:\n  prefix: x\n")

	assert.Empty(t, doc.Owners())
	ok, err := doc.IsOwner(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocument_InvalidOwners(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not a mapping", "Owners: [1, 2]\n"},
		{"non numeric id", "Owners:\n  alice: abc\n"},
		{"zero id", "Owners:\n  alice: 0\n"},
		{"fractional id", "Owners:\n  alice: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDocument([]byte(tt.data), FormatYAML, defaultOptions())
			assert.ErrorIs(t, err, ErrInvalidOwners)
		})
	}
}

func TestDocument_TypedAccess(t *testing.T) {
	doc := parseYAML(t, sampleYAML)

	prefix, err := doc.String("bot.prefix")
	require.NoError(t, err)
	assert.Equal(t, "o!", prefix)

	shards, err := doc.Int("bot.shards")
	require.NoError(t, err)
	assert.Equal(t, int64(4), shards)

	debug, err := doc.Bool("bot.debug")
	require.NoError(t, err)
	assert.True(t, debug)

	_, err = doc.String("bot.shards")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = doc.Get("bot.missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocument_Section(t *testing.T) {
	doc := parseYAML(t, sampleYAML)

	sec, err := doc.Section("bot")
	require.NoError(t, err)
	assert.Equal(t, "bot", sec.Name())
	assert.Equal(t, []string{"debug", "prefix", "shards"}, sec.Keys())

	var bot struct {
		Prefix string `koanf:"prefix"`
		Shards int    `koanf:"shards"`
	}
	require.NoError(t, sec.Unmarshal(&bot))
	assert.Equal(t, "o!", bot.Prefix)
	assert.Equal(t, 4, bot.Shards)

	_, err = doc.Section("bot.prefix")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestDocument_JSON(t *testing.T) {
	doc, err := parseDocument([]byte(`{"Owners":{"alice":"412345678901234567","bob":7},"bot":{"prefix":"?"}}`),
		FormatJSON, defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []Owner{{Name: "alice", ID: 412345678901234567}, {Name: "bob", ID: 7}}, doc.Owners())
	prefix, err := doc.String("bot.prefix")
	require.NoError(t, err)
	assert.Equal(t, "?", prefix)
}

func TestDocument_JSONLargeNumericOwnerID(t *testing.T) {
	// 数字形式的 ID 超过 2^53，解码后已不是原值
	_, err := parseDocument([]byte(`{"Owners":{"alice":210987654321098765}}`), FormatJSON, defaultOptions())
	require.ErrorIs(t, err, ErrInvalidOwners)

	doc, err := parseDocument([]byte(`{"Owners":{"alice":"210987654321098765"}}`), FormatJSON, defaultOptions())
	require.NoError(t, err)
	ok, err := doc.IsOwner(210987654321098765)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDocument_CustomOwnersKey(t *testing.T) {
	o := defaultOptions()
	WithOwnersKey("admins")(o)
	doc, err := parseDocument([]byte("admins:\n  root: 1\n"), FormatYAML, o)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, doc.OwnerIDs())
}

func TestParseDocument_Errors(t *testing.T) {
	_, err := parseDocument([]byte("a: [unclosed"), FormatYAML, defaultOptions())
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = parseDocument([]byte("{}"), Format("toml"), defaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{42, 42, true},
		{int64(7), 7, true},
		{uint64(9), 9, true},
		{float64(3), 3, true},
		{3.5, 0, false},
		{float64(1 << 53), 1 << 53, true},
		{float64(1 << 57), 0, false},
		{-float64(1 << 57), 0, false},
		{" 12 ", 12, true},
		{"x", 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := toInt64(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "%v", tt.in)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	f, err := detectFormat("/etc/bot/config.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = detectFormat("config.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = detectFormat("config.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
