package strgen

import (
	"fmt"

	"github.com/corbocal/idx/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[UUIDGenerator](NewUUIDGeneratorWithOptions)
	ref.MustRegisterT[ULIDGenerator](NewULIDGenerator)
	ref.MustRegisterT[KSUIDGenerator](NewKSUIDGenerator)
	ref.MustRegisterT[NanoIDGenerator](NewNanoIDGenerator)
	ref.MustRegisterT[CUID2Generator](NewCUID2Generator)
}

// StrGenerator 生成字符串 ID
type StrGenerator interface {
	Generate() (string, error)
}

// NewStrGeneratorWithOptions 通过 ref 注册表创建字符串生成器
func NewStrGeneratorWithOptions(options *ref.TypeOptions) (StrGenerator, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	generator, err := ref.New(options.Namespace, options.Type, options.Options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}
	g, ok := generator.(StrGenerator)
	if !ok {
		return nil, errors.Errorf("%T is not a StrGenerator", generator)
	}
	return g, nil
}

var ErrRandomSource = errors.New("random source failure")

// RandomSourceError 随机源不可用，调用方不应重试
type RandomSourceError struct {
	Generator string
	Err       error
}

func (e *RandomSourceError) Error() string {
	return fmt.Sprintf("%s: random source failure: %v", e.Generator, e.Err)
}

func (e *RandomSourceError) Unwrap() error {
	return e.Err
}

func (e *RandomSourceError) Is(target error) bool {
	return target == ErrRandomSource
}
