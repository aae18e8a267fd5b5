package uid

import (
	"fmt"

	"github.com/corbocal/idx/uid/intgen"
	"github.com/corbocal/idx/uid/strgen"
	"github.com/pkg/errors"
)

var (
	ErrFormat         = errors.New("invalid identifier format")
	ErrUnknownVariant = errors.New("unknown identifier variant")

	ErrClockRegression = intgen.ErrClockRegression
	ErrRandomSource    = strgen.ErrRandomSource
)

type (
	ClockRegressionError = intgen.ClockRegressionError
	RandomSourceError    = strgen.RandomSourceError
)

// FormatError 字符串不符合变体的格式，调用方可以修正输入后重试
type FormatError struct {
	Variant Variant
	Value   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%q is not a valid %s identifier", e.Value, e.Variant)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
