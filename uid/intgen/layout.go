package intgen

import (
	"github.com/pkg/errors"
)

// Layout 64 位 ID 的位分配，符号位不使用，四段之和必须为 63
// 已经投入使用的布局不能再修改，否则数值含义会改变
type Layout struct {
	TimestampBits uint `yaml:"timestampBits" validate:"omitempty,min=1,max=62"`
	ClusterBits   uint `yaml:"clusterBits" validate:"omitempty,max=61"`
	WorkerBits    uint `yaml:"workerBits" validate:"omitempty,max=61"`
	SequenceBits  uint `yaml:"sequenceBits" validate:"omitempty,min=1,max=61"`
}

// DefaultLayout [0][41 位时间戳][5 位集群][5 位工作节点][12 位序列号]
var DefaultLayout = Layout{
	TimestampBits: 41,
	ClusterBits:   5,
	WorkerBits:    5,
	SequenceBits:  12,
}

// Parts 从 ID 中拆出的各字段，Timestamp 为相对纪元的毫秒数
type Parts struct {
	Timestamp int64
	ClusterID int64
	WorkerID  int64
	Sequence  int64
}

func (l Layout) IsZero() bool {
	return l == Layout{}
}

func (l Layout) Validate() error {
	if l.TimestampBits == 0 || l.SequenceBits == 0 {
		return errors.Errorf("timestamp and sequence bits must be positive, got %d and %d", l.TimestampBits, l.SequenceBits)
	}
	if sum := l.TimestampBits + l.ClusterBits + l.WorkerBits + l.SequenceBits; sum != 63 {
		return errors.Errorf("layout bits must sum to 63, got %d", sum)
	}
	return nil
}

func mask(bits uint) int64 {
	return int64(1)<<bits - 1
}

func (l Layout) MaxTimestamp() int64 { return mask(l.TimestampBits) }
func (l Layout) MaxClusterID() int64 { return mask(l.ClusterBits) }
func (l Layout) MaxWorkerID() int64  { return mask(l.WorkerBits) }
func (l Layout) MaxSequence() int64  { return mask(l.SequenceBits) }

func (l Layout) workerShift() uint    { return l.SequenceBits }
func (l Layout) clusterShift() uint   { return l.SequenceBits + l.WorkerBits }
func (l Layout) timestampShift() uint { return l.SequenceBits + l.WorkerBits + l.ClusterBits }

// Compose 按布局拼装 ID，调用方保证每个字段都在范围内
func (l Layout) Compose(p Parts) int64 {
	return p.Timestamp<<l.timestampShift() |
		p.ClusterID<<l.clusterShift() |
		p.WorkerID<<l.workerShift() |
		p.Sequence
}

func (l Layout) Decompose(id int64) Parts {
	return Parts{
		Timestamp: id >> l.timestampShift() & l.MaxTimestamp(),
		ClusterID: id >> l.clusterShift() & l.MaxClusterID(),
		WorkerID:  id >> l.workerShift() & l.MaxWorkerID(),
		Sequence:  id & l.MaxSequence(),
	}
}
