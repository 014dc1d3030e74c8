package redis

import (
	"context"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/abdul7867/SearchAi/internal/db"
)

// Scripts guard writes on the key still existing, so a write racing a DEL
// never resurrects a partial hash.
var (
	hsetXXScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1`)

	hincrbyXXScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
return redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])`)
)

// HSetXX sets hash fields only if the hash exists. Reports whether it did.
func (s *Store) HSetXX(ctx context.Context, key string, fields map[string]string) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	args := make([]string, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	n, err := hsetXXScript.Exec(ctx, s.client, []string{key}, args).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpHSetXX, Err: err}
	}
	return n == 1, nil
}

// HIncrByXX increments a hash field only if the hash exists.
// ok is false when the key is missing.
func (s *Store) HIncrByXX(ctx context.Context, key, field string, incr int64) (int64, bool, error) {
	args := []string{field, strconv.FormatInt(incr, 10)}
	n, err := hincrbyXXScript.Exec(ctx, s.client, []string{key}, args).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, false, nil
		}
		return 0, false, &db.Error{Op: db.OpHIncrByXX, Err: err}
	}
	return n, true, nil
}
