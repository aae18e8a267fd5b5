package decoder

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// IniDecoderOptions INI 解码选项
type IniDecoderOptions struct {
	// 允许无值的键，解析为 true
	AllowBoolKeys bool `yaml:"allowBoolKeys"`
}

// IniDecoder INI 格式解码器
// section 名中的 "." 表示嵌套，例如 [snowflake.layout] 解码为 snowflake -> layout
type IniDecoder struct {
	allowBoolKeys bool
}

func NewIniDecoder() *IniDecoder {
	return &IniDecoder{allowBoolKeys: true}
}

func NewIniDecoderWithOptions(options *IniDecoderOptions) *IniDecoder {
	if options == nil {
		return NewIniDecoder()
	}
	return &IniDecoder{allowBoolKeys: options.AllowBoolKeys}
}

func (d *IniDecoder) Decode(data []byte) (any, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         d.allowBoolKeys,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode INI")
	}

	result := map[string]any{}
	for _, section := range file.Sections() {
		target := result
		if name := section.Name(); name != ini.DefaultSection {
			for _, part := range strings.Split(name, ".") {
				child, ok := target[part].(map[string]any)
				if !ok {
					child = map[string]any{}
					target[part] = child
				}
				target = child
			}
		}
		for _, k := range section.Keys() {
			target[k.Name()] = parseIniValue(k.String())
		}
	}
	return result, nil
}

// parseIniValue 推断标量类型：bool、int64、float64，其余保持字符串
func parseIniValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
