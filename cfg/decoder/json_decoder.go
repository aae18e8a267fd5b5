package decoder

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// JsonDecoderOptions JSON 解码选项
type JsonDecoderOptions struct {
	// 是否允许注释和尾随逗号
	Lenient bool `yaml:"lenient"`
}

// JsonDecoder JSON 格式解码器，宽松模式下支持 // 与 /* */ 注释以及尾随逗号
type JsonDecoder struct {
	lenient bool
}

func NewJsonDecoder() *JsonDecoder {
	return &JsonDecoder{lenient: true}
}

func NewJsonDecoderWithOptions(options *JsonDecoderOptions) *JsonDecoder {
	if options == nil {
		return NewJsonDecoder()
	}
	return &JsonDecoder{lenient: options.Lenient}
}

func (d *JsonDecoder) Decode(data []byte) (any, error) {
	if d.lenient {
		data = []byte(removeTrailingCommas(removeComments(string(data))))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var result any
	if err := dec.Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to decode JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("failed to decode JSON: unexpected data after top-level value")
	}
	return normalizeNumbers(result), nil
}

// removeComments 去掉字符串外部的行注释和块注释
func removeComments(content string) string {
	var sb strings.Builder
	inString, escaped := false, false

	for i := 0; i < len(content); i++ {
		c := content[i]
		if inString {
			sb.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			sb.WriteByte(c)
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' {
				i++
			}
			if i < len(content) {
				sb.WriteByte('\n')
			}
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return sb.String()
			}
			i += end + 3
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

func removeTrailingCommas(content string) string {
	return trailingCommaRe.ReplaceAllString(content, "$1")
}

// normalizeNumbers 把 json.Number 转成 int64，放不下 int64 的转成 float64
// 整数不经过 float64，超过 2^53 的值（如 snowflake ID）不会丢失精度
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	}
	return v
}
