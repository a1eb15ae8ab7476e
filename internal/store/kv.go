package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss 键不存在或已过期
var ErrMiss = errors.New("cache miss")

// versionSuffix 版本号伴随键的后缀，与值键同 TTL
const versionSuffix = ":ver"

// KV 最新读数缓存使用的最小键值接口
type KV interface {
	// Get 读取键，不存在返回 ErrMiss
	Get(ctx context.Context, key string) (string, error)
	// SetIfNewer 仅当 version 不小于已存版本号时写入，返回是否写入
	SetIfNewer(ctx context.Context, key string, value string, version int64, ttl time.Duration) (bool, error)
	// Del 删除键及其版本号
	Del(ctx context.Context, keys ...string) error
	// ScanKeys 按 glob 模式列出键
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// setIfNewerScript KEYS[1]=值键 KEYS[2]=版本键 ARGV=值、版本号、TTL(ms)
var setIfNewerScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if cur and tonumber(cur) > tonumber(ARGV[2]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// RedisKV 基于 go-redis 的 KV
type RedisKV struct {
	c *redis.Client
}

// NewRedisKV 创建 Redis KV
func NewRedisKV(c *redis.Client) *RedisKV {
	return &RedisKV{c: c}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

// SetIfNewer 用 Lua 脚本原子比较版本号，乱序到达的旧值不会覆盖新值
func (r *RedisKV) SetIfNewer(ctx context.Context, key string, value string, version int64, ttl time.Duration) (bool, error) {
	n, err := setIfNewerScript.Run(ctx, r.c,
		[]string{key, key + versionSuffix},
		value, version, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	all := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		all = append(all, k, k+versionSuffix)
	}
	return r.c.Del(ctx, all...).Err()
}

// ScanKeys 用 SCAN 游标遍历，避免 KEYS 阻塞
func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		out = append(out, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}
