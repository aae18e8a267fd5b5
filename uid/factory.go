package uid

import (
	"context"
	"fmt"
	"sort"

	"github.com/corbocal/idx/cfg/validator"
	"github.com/corbocal/idx/log"
	"github.com/corbocal/idx/log/logger"
	"github.com/corbocal/idx/ref"
	"github.com/corbocal/idx/uid/intgen"
	"github.com/pkg/errors"
)

// Generator 产生原始字符串，结果由 Factory 重新校验
type Generator interface {
	Generate() (string, error)
}

// ContextGenerator 需要感知 context 的生成器，例如带追踪的装饰器
type ContextGenerator interface {
	Generator
	GenerateContext(ctx context.Context) (string, error)
}

type GeneratorFunc func() (string, error)

func (f GeneratorFunc) Generate() (string, error) {
	return f()
}

// IntPayload 把整数生成器的结果格式化为 19 位十进制字符串
func IntPayload(g intgen.IntGenerator) Generator {
	return GeneratorFunc(func() (string, error) {
		n, err := g.Generate()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%019d", n), nil
	})
}

// Factory 按变体分发到对应的生成器，产出的标识符一定通过格式校验
// 生成器表在构造后只读，可以并发使用
type Factory struct {
	generators map[Variant]Generator
	logger     logger.Logger
}

func NewFactory(generators map[Variant]Generator) *Factory {
	m := make(map[Variant]Generator, len(generators))
	for v, g := range generators {
		m[v] = g
	}
	return &Factory{generators: m}
}

// FactoryOptions generators 的键为变体名，例如 uuid-v4、snowflake
type FactoryOptions struct {
	Generators map[string]*ref.TypeOptions `yaml:"generators" validate:"required,min=1,dive,required"`

	// 生成失败时使用的日志器，为空时不记录
	Logger *ref.TypeOptions `yaml:"logger"`

	// 为空时不包装观测装饰器
	Observable *ObservableOptions `yaml:"observable"`
}

func NewFactoryWithOptions(options *FactoryOptions) (*Factory, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid factory options")
	}

	f := &Factory{generators: make(map[Variant]Generator, len(options.Generators))}

	if options.Logger != nil {
		l, err := log.NewLoggerWithOptions(options.Logger)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create logger")
		}
		f.logger = l.WithGroup("uidFactory")
	}

	for name, typeOptions := range options.Generators {
		v, err := ParseVariant(name)
		if err != nil {
			return nil, err
		}

		g, err := NewGeneratorWithOptions(typeOptions)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to create %s generator", v)
		}

		if options.Observable != nil {
			g, err = NewObservableGenerator(g, v, options.Observable)
			if err != nil {
				return nil, errors.WithMessagef(err, "failed to observe %s generator", v)
			}
		}
		f.generators[v] = g
	}

	return f, nil
}

// Generate 等价于 GenerateContext(context.Background(), v)
func (f *Factory) Generate(v Variant) (Identifier, error) {
	return f.GenerateContext(context.Background(), v)
}

func (f *Factory) GenerateContext(ctx context.Context, v Variant) (Identifier, error) {
	g, ok := f.generators[v]
	if !ok {
		return Identifier{}, errors.Wrapf(ErrUnknownVariant, "no generator for %s", v)
	}
	if err := ctx.Err(); err != nil {
		return Identifier{}, err
	}

	var raw string
	var err error
	if cg, ok := g.(ContextGenerator); ok {
		raw, err = cg.GenerateContext(ctx)
	} else {
		raw, err = g.Generate()
	}
	if err != nil {
		f.logFailure(ctx, v, err)
		return Identifier{}, errors.WithMessagef(err, "generate %s", v)
	}

	id, err := Parse(v, raw)
	if err != nil {
		f.logFailure(ctx, v, err)
		return Identifier{}, err
	}
	return id, nil
}

// FromString 校验外部输入并构造标识符
func (f *Factory) FromString(v Variant, raw string) (Identifier, error) {
	return Parse(v, raw)
}

// Variants 已配置生成器的变体
func (f *Factory) Variants() []Variant {
	vs := make([]Variant, 0, len(f.generators))
	for v := range f.generators {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

func (f *Factory) logFailure(ctx context.Context, v Variant, err error) {
	if f.logger == nil {
		return
	}
	f.logger.ErrorContext(ctx, "identifier generation failed",
		"variant", v.String(),
		"error", err.Error(),
	)
}
