package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corbocal/idx/cfg/validator"
	"github.com/corbocal/idx/log"
	"github.com/corbocal/idx/log/logger"
	"github.com/corbocal/idx/ref"
	"github.com/corbocal/idx/uid/intgen"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNoFreeWorker = errors.New("no free worker id")
	ErrLeaseLost    = errors.New("worker lease lost")
)

const (
	defaultKeyPrefix = "uid:worker"
	defaultTTL       = 30 * time.Second
)

// 只有持有者可以续期和释放
var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// LeaseOptions 在一个集群内申请工作节点编号
type LeaseOptions struct {
	ClusterID int64 `yaml:"clusterId" validate:"min=0"`

	// 决定可用的集群和工作节点范围，为空时使用 intgen.DefaultLayout
	Layout intgen.Layout `yaml:"layout"`

	// 键格式为 <keyPrefix>:<clusterId>:<workerId>，默认 uid:worker
	KeyPrefix string `yaml:"keyPrefix"`

	// 租约有效期，默认 30s
	TTL time.Duration `yaml:"ttl" validate:"omitempty,min=1ms"`

	// 持有者标识，默认随机生成
	Owner string `yaml:"owner"`

	Logger *ref.TypeOptions `yaml:"logger"`
}

type RedisLeaseOptions struct {
	Endpoint string `yaml:"endpoint" validate:"required"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`

	LeaseOptions `yaml:",inline"`
}

// RedisLease 通过 SET NX PX 独占一个工作节点编号
// 租约过期后编号可能被其他进程取得，持有者需要在 TTL 内续期
type RedisLease struct {
	client    redis.UniversalClient
	ownClient bool

	key       string
	owner     string
	ttl       time.Duration
	layout    intgen.Layout
	clusterID int64
	workerID  int64
	logger    logger.Logger

	mu       sync.Mutex
	released bool
}

// AcquireWithOptions 创建 redis 客户端并申请租约，租约释放时关闭客户端
func AcquireWithOptions(ctx context.Context, options *RedisLeaseOptions) (*RedisLease, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid lease options")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     options.Endpoint,
		Username: options.Username,
		Password: options.Password,
		DB:       options.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping failed")
	}

	l, err := Acquire(ctx, client, &options.LeaseOptions)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	l.ownClient = true
	return l, nil
}

// Acquire 从 0 开始依次尝试，返回第一个空闲的工作节点编号
func Acquire(ctx context.Context, client redis.UniversalClient, options *LeaseOptions) (*RedisLease, error) {
	if client == nil {
		return nil, errors.New("client is nil")
	}
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid lease options")
	}

	layout := options.Layout
	if layout.IsZero() {
		layout = intgen.DefaultLayout
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if options.ClusterID > layout.MaxClusterID() {
		return nil, errors.Errorf("cluster id must be between 0 and %d, got %d", layout.MaxClusterID(), options.ClusterID)
	}

	prefix := options.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := options.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	owner := options.Owner
	if owner == "" {
		owner = uuid.NewString()
	}

	lg, err := log.NewLoggerWithOptions(options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create logger")
	}
	lg = lg.WithGroup("workerLease")

	for workerID := int64(0); workerID <= layout.MaxWorkerID(); workerID++ {
		key := fmt.Sprintf("%s:%d:%d", prefix, options.ClusterID, workerID)
		ok, err := client.SetNX(ctx, key, owner, ttl).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "redis SETNX %s failed", key)
		}
		if !ok {
			continue
		}

		lg.InfoContext(ctx, "worker lease acquired",
			"key", key,
			"owner", owner,
			"ttl", ttl.String(),
		)
		return &RedisLease{
			client:    client,
			key:       key,
			owner:     owner,
			ttl:       ttl,
			layout:    layout,
			clusterID: options.ClusterID,
			workerID:  workerID,
			logger:    lg,
		}, nil
	}

	return nil, errors.Wrapf(ErrNoFreeWorker, "cluster %d", options.ClusterID)
}

func (l *RedisLease) ClusterID() int64 { return l.clusterID }
func (l *RedisLease) WorkerID() int64  { return l.workerID }
func (l *RedisLease) Key() string      { return l.key }
func (l *RedisLease) Owner() string    { return l.owner }

// SnowflakeOptions 以租约得到的编号构造生成器配置
func (l *RedisLease) SnowflakeOptions() *intgen.SnowflakeOptions {
	clusterID, workerID := l.clusterID, l.workerID
	return &intgen.SnowflakeOptions{
		ClusterID: &clusterID,
		WorkerID:  &workerID,
		Layout:    l.layout,
	}
}

// Renew 延长租约，租约已过期或被他人持有时返回 ErrLeaseLost
func (l *RedisLease) Renew(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return errors.Wrapf(ErrLeaseLost, "key %s already released", l.key)
	}

	n, err := renewScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return errors.Wrapf(err, "renew %s failed", l.key)
	}
	if n == 0 {
		l.logger.WarnContext(ctx, "worker lease lost", "key", l.key, "owner", l.owner)
		return errors.Wrapf(ErrLeaseLost, "key %s", l.key)
	}
	return nil
}

// Release 释放租约，只删除自己持有的键
func (l *RedisLease) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return errors.Wrapf(ErrLeaseLost, "key %s already released", l.key)
	}

	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Int64()
	if err != nil {
		return errors.Wrapf(err, "release %s failed", l.key)
	}
	l.released = true

	if l.ownClient {
		if err := l.client.Close(); err != nil {
			return errors.Wrap(err, "close redis client failed")
		}
	}

	if n == 0 {
		return errors.Wrapf(ErrLeaseLost, "key %s", l.key)
	}
	l.logger.InfoContext(ctx, "worker lease released", "key", l.key, "owner", l.owner)
	return nil
}

// KeepAlive 按 interval 续期直到 ctx 结束或续期失败
// interval 为 0 时取 TTL 的三分之一
func (l *RedisLease) KeepAlive(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = l.ttl / 3
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := l.Renew(ctx); err != nil {
				return err
			}
		}
	}
}
