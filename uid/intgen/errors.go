package intgen

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrClockRegression     = errors.New("clock moved backwards")
	ErrTimestampOutOfRange = errors.New("timestamp out of range")
)

// ClockRegressionError 当前时间早于生成器上一次观察到的时间
// 生成器不会自行修正，状态保持不变
type ClockRegressionError struct {
	LastMillis int64
	NowMillis  int64
}

func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("clock moved backwards by %dms: last=%d, now=%d", e.LastMillis-e.NowMillis, e.LastMillis, e.NowMillis)
}

func (e *ClockRegressionError) Is(target error) bool {
	return target == ErrClockRegression
}

// Drift 时钟回拨的幅度，即调用方至少需要等待的时间
func (e *ClockRegressionError) Drift() time.Duration {
	return time.Duration(e.LastMillis-e.NowMillis) * time.Millisecond
}
