package strgen

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"
)

// UUIDOptions Reader 为空时使用 crypto/rand
type UUIDOptions struct {
	Reader io.Reader `yaml:"-"`
}

// UUIDGenerator 生成 version 4 UUID，输出小写带连字符的标准格式
type UUIDGenerator struct {
	reader io.Reader
}

func NewUUIDGeneratorWithOptions(options *UUIDOptions) *UUIDGenerator {
	if options == nil || options.Reader == nil {
		return &UUIDGenerator{reader: rand.Reader}
	}
	return &UUIDGenerator{reader: options.Reader}
}

func (g *UUIDGenerator) Generate() (string, error) {
	u, err := uuid.NewRandomFromReader(g.reader)
	if err != nil {
		return "", &RandomSourceError{Generator: "uuid", Err: err}
	}
	return u.String(), nil
}
