package intgen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/corbocal/idx/ref"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 手动推进的时钟，Sleep 推进 step 毫秒，step 为 0 时推进 1 毫秒
type fakeClock struct {
	mu     sync.Mutex
	now    int64
	step   int64
	sleeps int
}

func (c *fakeClock) UnixMilli() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps++
	if c.step == 0 {
		c.now++
		return
	}
	c.now += c.step
}

func (c *fakeClock) SetStep(step int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = step
}

func (c *fakeClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func int64Ptr(v int64) *int64 {
	return &v
}

func newTestSnowflake(t *testing.T, clock Clock, layout Layout) *SnowflakeGenerator {
	t.Helper()
	g, err := NewSnowflakeGenerator(&SnowflakeOptions{
		ClusterID: int64Ptr(1),
		WorkerID:  int64Ptr(2),
		Layout:    layout,
	}, clock)
	require.NoError(t, err)
	return g
}

func TestNewSnowflakeGenerator(t *testing.T) {
	tests := []struct {
		name    string
		options *SnowflakeOptions
		wantErr bool
	}{
		{
			name:    "nil options",
			options: nil,
			wantErr: true,
		},
		{
			name:    "missing cluster id",
			options: &SnowflakeOptions{WorkerID: int64Ptr(0)},
			wantErr: true,
		},
		{
			name:    "missing worker id",
			options: &SnowflakeOptions{ClusterID: int64Ptr(0)},
			wantErr: true,
		},
		{
			name:    "negative worker id",
			options: &SnowflakeOptions{ClusterID: int64Ptr(0), WorkerID: int64Ptr(-1)},
			wantErr: true,
		},
		{
			name:    "cluster id too large",
			options: &SnowflakeOptions{ClusterID: int64Ptr(32), WorkerID: int64Ptr(0)},
			wantErr: true,
		},
		{
			name:    "worker id too large",
			options: &SnowflakeOptions{ClusterID: int64Ptr(0), WorkerID: int64Ptr(32)},
			wantErr: true,
		},
		{
			name:    "negative epoch",
			options: &SnowflakeOptions{EpochMillis: -1, ClusterID: int64Ptr(0), WorkerID: int64Ptr(0)},
			wantErr: true,
		},
		{
			name: "layout does not sum to 63",
			options: &SnowflakeOptions{
				ClusterID: int64Ptr(0),
				WorkerID:  int64Ptr(0),
				Layout:    Layout{TimestampBits: 41, ClusterBits: 5, WorkerBits: 5, SequenceBits: 10},
			},
			wantErr: true,
		},
		{
			name:    "zero ids with default layout",
			options: &SnowflakeOptions{ClusterID: int64Ptr(0), WorkerID: int64Ptr(0)},
		},
		{
			name:    "max ids with default layout",
			options: &SnowflakeOptions{ClusterID: int64Ptr(31), WorkerID: int64Ptr(31)},
		},
		{
			name: "custom layout without cluster bits",
			options: &SnowflakeOptions{
				ClusterID: int64Ptr(0),
				WorkerID:  int64Ptr(1023),
				Layout:    Layout{TimestampBits: 41, WorkerBits: 10, SequenceBits: 12},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewSnowflakeGenerator(tt.options, SystemClock{})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, *tt.options.ClusterID, g.ClusterID())
			assert.Equal(t, *tt.options.WorkerID, g.WorkerID())
		})
	}
}

func TestSnowflakeGenerator_Defaults(t *testing.T) {
	g, err := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{
		ClusterID: int64Ptr(3),
		WorkerID:  int64Ptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultEpochMillis, g.EpochMillis())
	assert.Equal(t, DefaultLayout, g.Layout())
	assert.Equal(t, time.Date(2016, 12, 16, 0, 0, 0, 0, time.UTC).UnixMilli(), DefaultEpochMillis)

	id, err := g.Generate()
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.WithinDuration(t, time.Now(), g.Time(id), time.Second)
}

func TestSnowflakeGenerator_Generate(t *testing.T) {
	Convey("Snowflake 生成器", t, func() {
		clock := &fakeClock{now: DefaultEpochMillis + 1000}
		g := newTestSnowflake(t, clock, Layout{})

		Convey("字段按布局编码", func() {
			id, err := g.Generate()
			So(err, ShouldBeNil)
			So(g.Decompose(id), ShouldResemble, Parts{Timestamp: 1000, ClusterID: 1, WorkerID: 2, Sequence: 0})
			So(id, ShouldEqual, int64(1000)<<22|int64(1)<<17|int64(2)<<12)
			So(g.Time(id).UnixMilli(), ShouldEqual, DefaultEpochMillis+1000)
		})

		Convey("同一毫秒内序列号递增", func() {
			var last int64 = -1
			for i := 0; i < 100; i++ {
				id, err := g.Generate()
				So(err, ShouldBeNil)
				So(id, ShouldBeGreaterThan, last)
				So(g.Decompose(id).Sequence, ShouldEqual, int64(i))
				last = id
			}
		})

		Convey("新的毫秒序列号归零", func() {
			first, err := g.Generate()
			So(err, ShouldBeNil)
			_, err = g.Generate()
			So(err, ShouldBeNil)

			clock.Set(DefaultEpochMillis + 1001)
			next, err := g.Generate()
			So(err, ShouldBeNil)
			So(next, ShouldBeGreaterThan, first)
			So(g.Decompose(next).Sequence, ShouldEqual, 0)
			So(g.Decompose(next).Timestamp, ShouldEqual, 1001)
		})

		Convey("时钟回拨返回错误且不改变状态", func() {
			id1, err := g.Generate()
			So(err, ShouldBeNil)

			clock.Set(DefaultEpochMillis + 995)
			id, err := g.Generate()
			So(id, ShouldEqual, 0)
			So(errors.Is(err, ErrClockRegression), ShouldBeTrue)

			var regression *ClockRegressionError
			So(errors.As(err, &regression), ShouldBeTrue)
			So(regression.LastMillis, ShouldEqual, DefaultEpochMillis+1000)
			So(regression.NowMillis, ShouldEqual, DefaultEpochMillis+995)
			So(regression.Drift(), ShouldEqual, 5*time.Millisecond)

			clock.Set(DefaultEpochMillis + 1000)
			id2, err := g.Generate()
			So(err, ShouldBeNil)
			So(id2, ShouldBeGreaterThan, id1)
			So(g.Decompose(id2).Sequence, ShouldEqual, 1)
		})

		Convey("时间早于纪元", func() {
			clock.Set(DefaultEpochMillis - 1)
			_, err := g.Generate()
			So(errors.Is(err, ErrTimestampOutOfRange), ShouldBeTrue)
		})
	})
}

func TestSnowflakeGenerator_SequenceOverflow(t *testing.T) {
	Convey("时钟冻结时序列号耗尽", t, func() {
		clock := &fakeClock{now: DefaultEpochMillis + 10}

		Convey("小布局", func() {
			g := newTestSnowflake(t, clock, Layout{TimestampBits: 51, ClusterBits: 5, WorkerBits: 5, SequenceBits: 2})

			var ids []int64
			for i := 0; i < 9; i++ {
				id, err := g.Generate()
				So(err, ShouldBeNil)
				ids = append(ids, id)
			}
			for i := 1; i < len(ids); i++ {
				So(ids[i], ShouldBeGreaterThan, ids[i-1])
			}

			So(g.Decompose(ids[3]).Timestamp, ShouldEqual, 10)
			So(g.Decompose(ids[3]).Sequence, ShouldEqual, 3)
			So(g.Decompose(ids[4]).Timestamp, ShouldEqual, 11)
			So(g.Decompose(ids[4]).Sequence, ShouldEqual, 0)
			So(g.Decompose(ids[8]).Timestamp, ShouldEqual, 12)
			So(clock.sleeps, ShouldEqual, 2)
		})

		Convey("等待期间时钟回拨", func() {
			g := newTestSnowflake(t, clock, Layout{TimestampBits: 51, ClusterBits: 5, WorkerBits: 5, SequenceBits: 2})

			var last int64
			for i := 0; i < 4; i++ {
				id, err := g.Generate()
				So(err, ShouldBeNil)
				last = id
			}

			clock.SetStep(-5)
			id, err := g.Generate()
			So(id, ShouldEqual, 0)
			So(errors.Is(err, ErrClockRegression), ShouldBeTrue)
			So(clock.sleeps, ShouldEqual, 1)

			var regression *ClockRegressionError
			So(errors.As(err, &regression), ShouldBeTrue)
			So(regression.LastMillis, ShouldEqual, DefaultEpochMillis+10)
			So(regression.NowMillis, ShouldEqual, DefaultEpochMillis+5)

			// 状态未变：回到同一毫秒时序列号仍然耗尽
			clock.SetStep(1)
			clock.Set(DefaultEpochMillis + 10)
			id, err = g.Generate()
			So(err, ShouldBeNil)
			So(id, ShouldBeGreaterThan, last)
			So(g.Decompose(id).Timestamp, ShouldEqual, 11)
			So(g.Decompose(id).Sequence, ShouldEqual, 0)
			So(clock.sleeps, ShouldEqual, 2)
		})

		Convey("默认布局", func() {
			g := newTestSnowflake(t, clock, Layout{})

			seen := make(map[int64]struct{})
			var last int64
			for i := 0; i < 4097; i++ {
				id, err := g.Generate()
				So(err, ShouldBeNil)
				So(id, ShouldBeGreaterThan, last)
				seen[id] = struct{}{}
				last = id
			}
			So(len(seen), ShouldEqual, 4097)
			So(g.Decompose(last).Timestamp, ShouldEqual, 11)
			So(g.Decompose(last).Sequence, ShouldEqual, 0)
		})
	})
}

func TestSnowflakeGenerator_Concurrent(t *testing.T) {
	g, err := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{
		ClusterID: int64Ptr(0),
		WorkerID:  int64Ptr(0),
	})
	require.NoError(t, err)

	const goroutines = 100
	const perGoroutine = 100

	var wg sync.WaitGroup
	results := make(chan int64, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last int64
			for j := 0; j < perGoroutine; j++ {
				id, err := g.Generate()
				if !assert.NoError(t, err) {
					return
				}
				assert.Greater(t, id, last)
				last = id
				results <- id
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]struct{}, goroutines*perGoroutine)
	for id := range results {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

type scriptedGenerator struct {
	errs  []error
	id    int64
	calls int
}

func (g *scriptedGenerator) Generate() (int64, error) {
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return 0, err
	}
	return g.id, nil
}

func TestGenerateWithRetry(t *testing.T) {
	Convey("GenerateWithRetry", t, func() {
		Convey("小幅回拨等待后重试", func() {
			g := &scriptedGenerator{
				errs: []error{
					&ClockRegressionError{LastMillis: 10, NowMillis: 9},
					&ClockRegressionError{LastMillis: 10, NowMillis: 8},
				},
				id: 42,
			}
			id, err := GenerateWithRetry(context.Background(), g, 10*time.Millisecond)
			So(err, ShouldBeNil)
			So(id, ShouldEqual, 42)
			So(g.calls, ShouldEqual, 3)
		})

		Convey("回拨超过上限直接返回", func() {
			g := &scriptedGenerator{
				errs: []error{&ClockRegressionError{LastMillis: 1000, NowMillis: 0}},
			}
			_, err := GenerateWithRetry(context.Background(), g, 10*time.Millisecond)
			So(errors.Is(err, ErrClockRegression), ShouldBeTrue)
			So(g.calls, ShouldEqual, 1)
		})

		Convey("其它错误不重试", func() {
			g := &scriptedGenerator{errs: []error{ErrTimestampOutOfRange}}
			_, err := GenerateWithRetry(context.Background(), g, time.Second)
			So(err, ShouldEqual, ErrTimestampOutOfRange)
			So(g.calls, ShouldEqual, 1)
		})

		Convey("context 取消", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			g := &scriptedGenerator{
				errs: []error{&ClockRegressionError{LastMillis: 500, NowMillis: 0}},
			}
			_, err := GenerateWithRetry(ctx, g, time.Second)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestNewIntGeneratorWithOptions(t *testing.T) {
	Convey("通过注册表创建", t, func() {
		Convey("nil options", func() {
			_, err := NewIntGeneratorWithOptions(nil)
			So(err, ShouldNotBeNil)
		})

		Convey("未注册的类型", func() {
			_, err := NewIntGeneratorWithOptions(&ref.TypeOptions{Namespace: "unknown", Type: "Nope"})
			So(err, ShouldNotBeNil)
		})

		Convey("Snowflake", func() {
			g, err := NewIntGeneratorWithOptions(&ref.TypeOptions{
				Namespace: "github.com/corbocal/idx/uid/intgen",
				Type:      "SnowflakeGenerator",
				Options: &SnowflakeOptions{
					ClusterID: int64Ptr(1),
					WorkerID:  int64Ptr(1),
				},
			})
			So(err, ShouldBeNil)
			So(g, ShouldHaveSameTypeAs, &SnowflakeGenerator{})

			id, err := g.Generate()
			So(err, ShouldBeNil)
			So(id, ShouldBeGreaterThan, 0)
		})

		Convey("配置缺少 workerId", func() {
			_, err := NewIntGeneratorWithOptions(&ref.TypeOptions{
				Namespace: "github.com/corbocal/idx/uid/intgen",
				Type:      "SnowflakeGenerator",
				Options:   &SnowflakeOptions{ClusterID: int64Ptr(1)},
			})
			So(err, ShouldNotBeNil)
		})
	})
}
