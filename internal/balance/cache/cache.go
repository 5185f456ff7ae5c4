package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/tabungan/internal/balance"
)

const keyPrefix = "balance:"

// setNewer writes amount and version unless the stored version is newer.
// KEYS[1] is the balance key, ARGV is amount, version, ttl in milliseconds.
var setNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'amount', ARGV[1], 'version', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// Redis stores each balance as a hash under balance:<student id> holding the
// amount and the microsecond timestamp it was committed at.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(studentID string) string {
	return keyPrefix + studentID
}

// version orders balances of one student. A balance that was never stored
// has version 0 and loses against any committed one.
func version(b balance.Balance) int64 {
	if b.UpdatedAt.IsZero() {
		return 0
	}

	return b.UpdatedAt.UnixMicro()
}

func (c *Redis) Get(ctx context.Context, studentID string) (int64, bool, error) {
	val, err := c.client.HGet(ctx, key(studentID), "amount").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("reading cached balance: %w", err)
	}

	amount, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing cached balance %q: %w", val, err)
	}

	return amount, true, nil
}

// Set stores b unless the cache already holds a balance committed after it.
// A slow read filling the cache therefore never hides a newer approval.
func (c *Redis) Set(ctx context.Context, b balance.Balance) error {
	args := []any{b.Balance, version(b), c.ttl.Milliseconds()}

	if err := setNewer.Run(ctx, c.client, []string{key(b.StudentID)}, args...).Err(); err != nil {
		return fmt.Errorf("caching balance: %w", err)
	}

	return nil
}
