package uid

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// Identifier 经过格式校验的不可变标识符
// 零值表示"无标识符"，只能通过 Parse 或 Factory 得到有效值
type Identifier struct {
	value   string
	variant Variant
}

// Parse 校验 raw 并构造标识符，不符合格式时返回 *FormatError
func Parse(v Variant, raw string) (Identifier, error) {
	if !v.Known() {
		return Identifier{}, errors.Wrapf(ErrUnknownVariant, "variant %d", int(v))
	}
	if !v.Valid(raw) {
		return Identifier{}, &FormatError{Variant: v, Value: raw}
	}
	return Identifier{value: raw, variant: v}, nil
}

// MustParse 用于测试和静态数据，校验失败时 panic
func MustParse(v Variant, raw string) Identifier {
	id, err := Parse(v, raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (id Identifier) String() string {
	return id.value
}

// Serialize 返回原始字符串，Parse(id.Variant(), id.Serialize()) 得到相同的值
func (id Identifier) Serialize() string {
	return id.value
}

func (id Identifier) Variant() Variant {
	return id.variant
}

func (id Identifier) Equal(other Identifier) bool {
	return id.variant == other.variant && id.value == other.value
}

func (id Identifier) IsZero() bool {
	return id.variant == VariantUnknown && id.value == ""
}

// Int64 Snowflake 标识符的数值
func (id Identifier) Int64() (int64, error) {
	if id.variant != Snowflake {
		return 0, errors.Errorf("%s identifier has no integer form", id.variant)
	}
	n, err := strconv.ParseInt(id.value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse snowflake %q", id.value)
	}
	return n, nil
}

func (id Identifier) Map() map[string]string {
	return map[string]string{
		"value": id.value,
		"type":  id.variant.String(),
	}
}

func (id Identifier) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return nil, errors.New("cannot marshal zero identifier")
	}
	return []byte(id.value), nil
}

// UnmarshalText 要求变体已经确定，例如 id := uid.MustParse(uid.UUID4, ...) 之后再复用
// 零值没有变体，无法判断格式，直接返回错误
func (id *Identifier) UnmarshalText(text []byte) error {
	if !id.variant.Known() {
		return errors.Wrap(ErrUnknownVariant, "identifier variant must be set before UnmarshalText")
	}
	parsed, err := Parse(id.variant, string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type identifierJSON struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

func (id Identifier) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(identifierJSON{Value: id.value, Type: id.variant.String()})
}

func (id *Identifier) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = Identifier{}
		return nil
	}

	var obj identifierJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "json.Unmarshal failed")
	}
	v, err := ParseVariant(obj.Type)
	if err != nil {
		return err
	}
	parsed, err := Parse(v, obj.Value)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
