package intgen

import (
	"math"
	"sync"
	"time"

	"github.com/corbocal/idx/cfg/validator"
	"github.com/pkg/errors"
)

// DefaultEpochMillis 2016-12-16 00:00:00 UTC
const DefaultEpochMillis int64 = 1481846400000

// spinInterval 序列号耗尽后轮询时钟的间隔
const spinInterval = 100 * time.Microsecond

// SnowflakeOptions Snowflake 生成器配置
// ClusterID 和 WorkerID 必须由部署方统一分配，生成器不会自行推导
type SnowflakeOptions struct {
	// 纪元（Unix 毫秒），0 表示 DefaultEpochMillis
	EpochMillis int64  `yaml:"epochMillis" validate:"min=0"`
	ClusterID   *int64 `yaml:"clusterId" validate:"required,min=0"`
	WorkerID    *int64 `yaml:"workerId" validate:"required,min=0"`
	// 为空时使用 DefaultLayout
	Layout Layout `yaml:"layout"`
}

// SnowflakeGenerator 为一个 (cluster, worker) 生成单调递增的 64 位 ID
// 所有调用在同一把锁内串行执行
type SnowflakeGenerator struct {
	clock     Clock
	layout    Layout
	epoch     int64
	clusterID int64
	workerID  int64

	mu         sync.Mutex
	lastMillis int64
	sequence   int64
}

func NewSnowflakeGeneratorWithOptions(options *SnowflakeOptions) (*SnowflakeGenerator, error) {
	return NewSnowflakeGenerator(options, SystemClock{})
}

func NewSnowflakeGenerator(options *SnowflakeOptions, clock Clock) (*SnowflakeGenerator, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if clock == nil {
		return nil, errors.New("clock is nil")
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid snowflake options")
	}

	layout := options.Layout
	if layout.IsZero() {
		layout = DefaultLayout
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	epoch := options.EpochMillis
	if epoch == 0 {
		epoch = DefaultEpochMillis
	}

	if *options.ClusterID > layout.MaxClusterID() {
		return nil, errors.Errorf("cluster id must be between 0 and %d, got %d", layout.MaxClusterID(), *options.ClusterID)
	}
	if *options.WorkerID > layout.MaxWorkerID() {
		return nil, errors.Errorf("worker id must be between 0 and %d, got %d", layout.MaxWorkerID(), *options.WorkerID)
	}

	return &SnowflakeGenerator{
		clock:      clock,
		layout:     layout,
		epoch:      epoch,
		clusterID:  *options.ClusterID,
		workerID:   *options.WorkerID,
		lastMillis: math.MinInt64,
	}, nil
}

// Generate 生成下一个 ID
//
// 时钟回拨时返回 *ClockRegressionError 且不修改状态；同一毫秒内序列号耗尽时
// 在锁内等待下一毫秒。
func (g *SnowflakeGenerator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.UnixMilli()
	if now < g.lastMillis {
		return 0, &ClockRegressionError{LastMillis: g.lastMillis, NowMillis: now}
	}

	var sequence int64
	if now == g.lastMillis {
		sequence = g.sequence + 1
		if sequence > g.layout.MaxSequence() {
			next, err := g.waitNextMillis(g.lastMillis)
			if err != nil {
				return 0, err
			}
			now = next
			sequence = 0
		}
	}

	timestamp := now - g.epoch
	if timestamp < 0 || timestamp > g.layout.MaxTimestamp() {
		return 0, errors.Wrapf(ErrTimestampOutOfRange, "now=%d, epoch=%d", now, g.epoch)
	}

	g.lastMillis = now
	g.sequence = sequence

	return g.layout.Compose(Parts{
		Timestamp: timestamp,
		ClusterID: g.clusterID,
		WorkerID:  g.workerID,
		Sequence:  sequence,
	}), nil
}

// waitNextMillis 必须在持有锁时调用
// 只在时钟停留在 last 时等待，等待期间发生回拨立即返回 *ClockRegressionError
func (g *SnowflakeGenerator) waitNextMillis(last int64) (int64, error) {
	now := g.clock.UnixMilli()
	for now == last {
		g.clock.Sleep(spinInterval)
		now = g.clock.UnixMilli()
	}
	if now < last {
		return 0, &ClockRegressionError{LastMillis: last, NowMillis: now}
	}
	return now, nil
}

// Decompose 拆解由相同布局生成的 ID
func (g *SnowflakeGenerator) Decompose(id int64) Parts {
	return g.layout.Decompose(id)
}

// Time 返回 ID 中编码的生成时间
func (g *SnowflakeGenerator) Time(id int64) time.Time {
	return time.UnixMilli(g.layout.Decompose(id).Timestamp + g.epoch)
}

func (g *SnowflakeGenerator) Layout() Layout     { return g.layout }
func (g *SnowflakeGenerator) EpochMillis() int64 { return g.epoch }
func (g *SnowflakeGenerator) ClusterID() int64   { return g.clusterID }
func (g *SnowflakeGenerator) WorkerID() int64    { return g.workerID }
