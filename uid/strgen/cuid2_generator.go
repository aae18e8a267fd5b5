package strgen

import (
	"github.com/nrednav/cuid2"
	"github.com/pkg/errors"
)

const CUID2Length = 24

// CUID2Generator 以小写字母开头的 24 位 base36 字符串
type CUID2Generator struct {
	generate func() string
}

func NewCUID2Generator() (*CUID2Generator, error) {
	generate, err := cuid2.Init(cuid2.WithLength(CUID2Length))
	if err != nil {
		return nil, errors.WithMessage(err, "cuid2.Init failed")
	}
	return &CUID2Generator{generate: generate}, nil
}

func (g *CUID2Generator) Generate() (string, error) {
	return g.generate(), nil
}
