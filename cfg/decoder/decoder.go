package decoder

import (
	"strings"

	"github.com/corbocal/idx/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[*YamlDecoder](NewYamlDecoder)
	ref.MustRegisterT[*JsonDecoder](NewJsonDecoderWithOptions)
	ref.MustRegisterT[*TomlDecoder](NewTomlDecoder)
	ref.MustRegisterT[*IniDecoder](NewIniDecoderWithOptions)
}

// Decoder 把原始配置数据解码成通用的配置树
// 配置树只由 map[string]any、[]any 和标量组成
type Decoder interface {
	Decode(data []byte) (any, error)
}

func NewDecoderWithOptions(options *ref.TypeOptions) (Decoder, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	obj, err := ref.New(options.Namespace, options.Type, options.Options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}
	decoder, ok := obj.(Decoder)
	if !ok {
		return nil, errors.Errorf("%T is not a Decoder", obj)
	}
	return decoder, nil
}

// ForExt 根据文件扩展名选择解码器，扩展名可以带或不带 "."
func ForExt(ext string) (Decoder, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		return NewYamlDecoder(), nil
	case "json", "json5":
		return NewJsonDecoder(), nil
	case "toml":
		return NewTomlDecoder(), nil
	case "ini":
		return NewIniDecoder(), nil
	}
	return nil, errors.Errorf("unsupported config format %q", ext)
}
