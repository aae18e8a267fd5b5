package uid

import (
	"context"
	"sync"

	"github.com/corbocal/idx/ref"
	"github.com/corbocal/idx/uid/intgen"
	"github.com/corbocal/idx/uid/strgen"
	"github.com/pkg/errors"
)

// NewIntGeneratorWithOptions 创建整数生成器
func NewIntGeneratorWithOptions(options *ref.TypeOptions) (intgen.IntGenerator, error) {
	return intgen.NewIntGeneratorWithOptions(options)
}

// NewStrGeneratorWithOptions 创建字符串生成器
func NewStrGeneratorWithOptions(options *ref.TypeOptions) (strgen.StrGenerator, error) {
	return strgen.NewStrGeneratorWithOptions(options)
}

// NewGeneratorWithOptions 通过 ref 注册表创建生成器
// 整数生成器会被包装成 19 位十进制字符串
func NewGeneratorWithOptions(options *ref.TypeOptions) (Generator, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	obj, err := ref.New(options.Namespace, options.Type, options.Options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}

	switch g := obj.(type) {
	case Generator:
		return g, nil
	case intgen.IntGenerator:
		return IntPayload(g), nil
	default:
		return nil, errors.Errorf("%T is neither a string nor an integer generator", obj)
	}
}

var (
	defaultOnce    sync.Once
	defaultFactory *Factory
)

// Default 不需要任何配置的变体组成的工厂
// Snowflake 必须显式分配集群和工作节点，不在其中
func Default() *Factory {
	defaultOnce.Do(func() {
		cuid2, err := strgen.NewCUID2Generator()
		if err != nil {
			panic("failed to initialize cuid2 generator: " + err.Error())
		}
		defaultFactory = NewFactory(map[Variant]Generator{
			UUID4:  strgen.NewUUIDGeneratorWithOptions(nil),
			ULID:   strgen.NewULIDGenerator(),
			KSUID:  strgen.NewKSUIDGenerator(),
			NanoID: strgen.NewNanoIDGenerator(),
			CUID2:  cuid2,
		})
	})
	return defaultFactory
}

// New 使用默认工厂生成标识符
func New(v Variant) (Identifier, error) {
	return Default().GenerateContext(context.Background(), v)
}
