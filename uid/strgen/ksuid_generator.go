package strgen

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

// KSUIDGenerator 32 位秒级时间戳 + 128 位随机负载，base62 编码为 27 个字符
type KSUIDGenerator struct {
	reader io.Reader
	now    func() time.Time
}

func NewKSUIDGenerator() *KSUIDGenerator {
	return NewKSUIDGeneratorWithReader(rand.Reader, time.Now)
}

func NewKSUIDGeneratorWithReader(reader io.Reader, now func() time.Time) *KSUIDGenerator {
	return &KSUIDGenerator{reader: reader, now: now}
}

func (g *KSUIDGenerator) Generate() (string, error) {
	payload := make([]byte, 16)
	if _, err := io.ReadFull(g.reader, payload); err != nil {
		return "", &RandomSourceError{Generator: "ksuid", Err: err}
	}
	id, err := ksuid.FromParts(g.now(), payload)
	if err != nil {
		return "", errors.WithMessage(err, "ksuid.FromParts failed")
	}
	return id.String(), nil
}
