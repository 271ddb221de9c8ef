package xconf

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Owner 特权用户。
type Owner struct {
	Name string
	ID   int64
}

// Document 一次成功加载得到的不可变配置快照，可被任意 goroutine 并发读取。
type Document struct {
	k        *koanf.Koanf
	tag      string
	version  uint64
	loadedAt time.Time
	owners   []Owner
	ownerIDs map[int64]struct{}
}

// Version 从 1 开始，每次成功加载加一。
func (d *Document) Version() uint64 { return d.version }

// LoadedAt 加载完成时间。
func (d *Document) LoadedAt() time.Time { return d.loadedAt }

// Keys 所有叶子路径，已排序。
func (d *Document) Keys() []string {
	keys := d.k.Keys()
	slices.Sort(keys)
	return keys
}

// All 扁平化的全部配置。
func (d *Document) All() map[string]any { return d.k.All() }

// Get 返回 path 处的原始值。
func (d *Document) Get(path string) (any, error) {
	if !d.k.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return d.k.Get(path), nil
}

// String 返回字符串值，不做隐式转换。
func (d *Document) String(path string) (string, error) {
	v, err := d.Get(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrTypeMismatch, path, v)
	}
	return s, nil
}

// Int 返回整数值。接受 YAML 整数、JSON 中绝对值不超过 2^53 的整数和十进制字符串。
func (d *Document) Int(path string) (int64, error) {
	v, err := d.Get(path)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, want integer", ErrTypeMismatch, path, v)
	}
	return n, nil
}

// Bool 返回布尔值。
func (d *Document) Bool(path string) (bool, error) {
	v, err := d.Get(path)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, want bool", ErrTypeMismatch, path, v)
	}
	return b, nil
}

// Section 返回顶层或嵌套的映射段。
func (d *Document) Section(name string) (Section, error) {
	v, err := d.Get(name)
	if err != nil {
		return Section{}, err
	}
	if _, ok := v.(map[string]any); !ok {
		return Section{}, fmt.Errorf("%w: %s is %T, want section", ErrTypeMismatch, name, v)
	}
	return Section{name: name, doc: &Document{k: d.k.Cut(name), tag: d.tag}}, nil
}

// Unmarshal 将 path 处的配置解码到 target，path 为空表示整个文档。
func (d *Document) Unmarshal(path string, target any) error {
	if err := d.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: d.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Owners 特权用户列表，按名称排序。返回副本。
func (d *Document) Owners() []Owner {
	return slices.Clone(d.owners)
}

// OwnerIDs 特权用户 ID，顺序与 Owners 一致。
func (d *Document) OwnerIDs() []int64 {
	ids := make([]int64, len(d.owners))
	for i, o := range d.owners {
		ids[i] = o.ID
	}
	return ids
}

// IsOwner 判断 id 是否为特权用户。id 非正数返回 ErrInvalidIdentity。
func (d *Document) IsOwner(id int64) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidIdentity, id)
	}
	_, ok := d.ownerIDs[id]
	return ok, nil
}

// Section 文档中的一个映射段。
type Section struct {
	name string
	doc  *Document
}

// Name 段名称。
func (s Section) Name() string { return s.name }

// Keys 段内叶子路径（相对段名）。
func (s Section) Keys() []string { return s.doc.Keys() }

// Get 段内相对路径的原始值。
func (s Section) Get(path string) (any, error) { return s.doc.Get(path) }

// String 段内字符串值。
func (s Section) String(path string) (string, error) { return s.doc.String(path) }

// Int 段内整数值。
func (s Section) Int(path string) (int64, error) { return s.doc.Int(path) }

// Bool 段内布尔值。
func (s Section) Bool(path string) (bool, error) { return s.doc.Bool(path) }

// Unmarshal 将整个段解码到 target。
func (s Section) Unmarshal(target any) error { return s.doc.Unmarshal("", target) }

// parseDocument 解析配置内容。version 与 loadedAt 由 Store 填写。
func parseDocument(data []byte, format Format, o *options) (*Document, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(o.delim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	owners, err := parseOwners(k, o.ownersKey)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(owners))
	for _, ow := range owners {
		ids[ow.ID] = struct{}{}
	}
	return &Document{k: k, tag: o.tag, owners: owners, ownerIDs: ids}, nil
}

// parseOwners 缺少 Owners 段视为空列表；段存在但格式错误则整个文档无效。
func parseOwners(k *koanf.Koanf, key string) ([]Owner, error) {
	if !k.Exists(key) {
		return nil, nil
	}
	raw, ok := k.Get(key).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a mapping of name to id", ErrInvalidOwners, key)
	}

	owners := make([]Owner, 0, len(raw))
	for name, v := range raw {
		id, ok := toInt64(v)
		if !ok || id <= 0 {
			return nil, fmt.Errorf("%w: %s.%s = %v", ErrInvalidOwners, key, name, v)
		}
		owners = append(owners, Owner{Name: name, ID: id})
	}
	slices.SortFunc(owners, func(a, b Owner) int { return strings.Compare(a.Name, b.Name) })
	return owners, nil
}

// maxExactFloat float64 能精确表示的最大整数。
const maxExactFloat = 1 << 53

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		// JSON 数字解码为 float64，超过 2^53 的整数已丢失精度
		if n != math.Trunc(n) || math.Abs(n) > maxExactFloat {
			return 0, false
		}
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

func detectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}
