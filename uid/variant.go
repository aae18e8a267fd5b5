package uid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Variant 标识符类型，每种类型对应一个固定的格式
type Variant int

const (
	VariantUnknown Variant = iota
	UUID4
	Snowflake
	ULID
	KSUID
	NanoID
	CUID2
)

// maxSnowflake math.MaxInt64 的十进制表示，与 19 位候选串按字典序比较即可
const maxSnowflake = "9223372036854775807"

type variantInfo struct {
	name    string
	pattern *regexp.Regexp
	// 格式之外的额外约束
	check func(string) bool
}

var variants = map[Variant]variantInfo{
	UUID4: {
		name:    "uuid-v4",
		pattern: regexp.MustCompile(`(?i)^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`),
	},
	Snowflake: {
		name:    "snowflake",
		pattern: regexp.MustCompile(`^\d{19}$`),
		check: func(s string) bool {
			return s <= maxSnowflake
		},
	},
	ULID: {
		name:    "ulid",
		pattern: regexp.MustCompile(`^[0-7][0-9A-HJKMNP-TV-Z]{25}$`),
	},
	KSUID: {
		name:    "ksuid",
		pattern: regexp.MustCompile(`^[0-9A-Za-z]{27}$`),
	},
	NanoID: {
		name:    "nanoid",
		pattern: regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`),
	},
	CUID2: {
		name:    "cuid2",
		pattern: regexp.MustCompile(`^[a-z][a-z0-9]{23}$`),
	},
}

// Variants 返回所有已知变体
func Variants() []Variant {
	return []Variant{UUID4, Snowflake, ULID, KSUID, NanoID, CUID2}
}

func ParseVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for v, info := range variants {
		if info.name == name {
			return v, nil
		}
	}
	return VariantUnknown, errors.Wrapf(ErrUnknownVariant, "variant %q", name)
}

func (v Variant) String() string {
	if info, ok := variants[v]; ok {
		return info.name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

func (v Variant) Known() bool {
	_, ok := variants[v]
	return ok
}

// Pattern 变体的格式，未知变体返回 nil
func (v Variant) Pattern() *regexp.Regexp {
	return variants[v].pattern
}

// Valid 判断 candidate 是否是该变体的合法值
func (v Variant) Valid(candidate string) bool {
	info, ok := variants[v]
	if !ok || !Validate(candidate, info.pattern) {
		return false
	}
	return info.check == nil || info.check(candidate)
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.Known() {
		return nil, errors.Wrapf(ErrUnknownVariant, "variant %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
