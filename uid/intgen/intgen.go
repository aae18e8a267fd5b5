package intgen

import (
	"github.com/corbocal/idx/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[SnowflakeGenerator](NewSnowflakeGeneratorWithOptions)
}

// IntGenerator 生成 64 位整数 ID
type IntGenerator interface {
	Generate() (int64, error)
}

// NewIntGeneratorWithOptions 通过 ref 注册表创建整数生成器
func NewIntGeneratorWithOptions(options *ref.TypeOptions) (IntGenerator, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	generator, err := ref.New(options.Namespace, options.Type, options.Options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}
	g, ok := generator.(IntGenerator)
	if !ok {
		return nil, errors.Errorf("%T is not an IntGenerator", generator)
	}
	return g, nil
}
