package intgen

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// GenerateWithRetry 在时钟回拨不超过 maxDrift 时等待时钟追上后重试
// 超过 maxDrift 的回拨以及其它错误直接返回
func GenerateWithRetry(ctx context.Context, g IntGenerator, maxDrift time.Duration) (int64, error) {
	for {
		id, err := g.Generate()
		if err == nil {
			return id, nil
		}

		var regression *ClockRegressionError
		if !errors.As(err, &regression) || regression.Drift() > maxDrift {
			return 0, err
		}

		timer := time.NewTimer(regression.Drift())
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, errors.WithMessage(ctx.Err(), err.Error())
		case <-timer.C:
		}
	}
}
