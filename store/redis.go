package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spektr-org/impactlens/record"
)

// redisCreateScript inserts a document only when its ID is new and records
// its position in the creation order.
// KEYS[1] = docs hash, KEYS[2] = order zset, KEYS[3] = sequence counter
// ARGV[1] = id, ARGV[2] = JSON document
var redisCreateScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
    return 0
end
local seq = redis.call("INCR", KEYS[3])
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("ZADD", KEYS[2], seq, ARGV[1])
return 1
`)

// redisUpdateScript replaces an existing document.
// KEYS[1] = docs hash; ARGV[1] = id, ARGV[2] = JSON document
var redisUpdateScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
    return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// RedisBackend stores a collection in one hash of JSON documents plus a
// sorted set that keeps creation order.
type RedisBackend[T any] struct {
	client redis.UniversalClient
	kind   record.Kind
	docs   string
	order  string
	seq    string
}

// NewRedisBackend uses keys under prefix (for example "impactlens").
func NewRedisBackend[T any](client redis.UniversalClient, prefix string) (*RedisBackend[T], error) {
	var zero T
	kind := record.KindOf(zero)
	if kind == "" {
		return nil, fmt.Errorf("redis backend: %T is not a record type", zero)
	}
	base := fmt.Sprintf("%s:%s", prefix, kind)
	return &RedisBackend[T]{
		client: client,
		kind:   kind,
		docs:   base + ":docs",
		order:  base + ":order",
		seq:    base + ":seq",
	}, nil
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (b *RedisBackend[T]) GetAll(ctx context.Context) ([]T, error) {
	ids, err := b.client.ZRange(ctx, b.order, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", b.kind, err)
	}
	items := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	docs, err := b.client.HMGet(ctx, b.docs, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", b.kind, err)
	}
	for _, d := range docs {
		s, ok := d.(string)
		if !ok {
			// order entry whose document is gone
			continue
		}
		rec, err := decode[T]([]byte(s))
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

func (b *RedisBackend[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	s, err := b.client.HGet(ctx, b.docs, id).Result()
	if errors.Is(err, redis.Nil) {
		return zero, &NotFoundError{Kind: b.kind, ID: id}
	}
	if err != nil {
		return zero, fmt.Errorf("redis get %s %q: %w", b.kind, id, err)
	}
	return decode[T]([]byte(s))
}

func (b *RedisBackend[T]) Create(ctx context.Context, rec T) error {
	id := idOf(rec)
	doc, err := encode(rec)
	if err != nil {
		return err
	}
	created, err := redisCreateScript.Run(ctx, b.client, []string{b.docs, b.order, b.seq}, id, string(doc)).Int()
	if err != nil {
		return fmt.Errorf("redis create %s %q: %w", b.kind, id, err)
	}
	if created == 0 {
		return fmt.Errorf("%s %q: %w", b.kind, id, ErrDuplicate)
	}
	return nil
}

func (b *RedisBackend[T]) Update(ctx context.Context, id string, rec T) error {
	doc, err := encode(rec)
	if err != nil {
		return err
	}
	updated, err := redisUpdateScript.Run(ctx, b.client, []string{b.docs}, id, string(doc)).Int()
	if err != nil {
		return fmt.Errorf("redis update %s %q: %w", b.kind, id, err)
	}
	if updated == 0 {
		return &NotFoundError{Kind: b.kind, ID: id}
	}
	return nil
}

func (b *RedisBackend[T]) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, b.docs, id)
		pipe.ZRem(ctx, b.order, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s %q: %w", b.kind, id, err)
	}
	if removed.Val() == 0 {
		return &NotFoundError{Kind: b.kind, ID: id}
	}
	return nil
}

// Clear removes every key of the collection.
func (b *RedisBackend[T]) Clear(ctx context.Context) error {
	if err := b.client.Del(ctx, b.docs, b.order, b.seq).Err(); err != nil {
		return fmt.Errorf("redis clear %s: %w", b.kind, err)
	}
	return nil
}
