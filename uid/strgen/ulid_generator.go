package strgen

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// ULIDGenerator 同一毫秒内使用单调熵，生成结果按字典序递增
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewULIDGenerator() *ULIDGenerator {
	return NewULIDGeneratorWithReader(rand.Reader, time.Now)
}

func NewULIDGeneratorWithReader(reader io.Reader, now func() time.Time) *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(reader, 0),
		now:     now,
	}
}

func (g *ULIDGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now()), g.entropy)
	if err != nil {
		if errors.Is(err, ulid.ErrMonotonicOverflow) || errors.Is(err, ulid.ErrBigTime) {
			return "", errors.WithMessage(err, "ulid.New failed")
		}
		return "", &RandomSourceError{Generator: "ulid", Err: err}
	}
	return id.String(), nil
}
