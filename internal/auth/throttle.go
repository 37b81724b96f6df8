package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleFailKeyPrefix = "login:fail:"
	throttleLockKeyPrefix = "login:lock:"
)

// loginThrottle はIPごとのログイン失敗回数を Redis で数え、上限に達したIPを一定時間ロックします。
// 失敗回数は window で、ロックは lockDuration で自動的に消えます。
// maxAttempts が 0 以下、または Redis が無い場合は何もしません。
type loginThrottle struct {
	rdb          redis.UniversalClient
	maxAttempts  int
	window       time.Duration
	lockDuration time.Duration
}

func newLoginThrottle(rdb redis.UniversalClient, maxAttempts int, window, lockDuration time.Duration) *loginThrottle {
	return &loginThrottle{
		rdb:          rdb,
		maxAttempts:  maxAttempts,
		window:       window,
		lockDuration: lockDuration,
	}
}

func (t *loginThrottle) enabled() bool {
	return t != nil && t.rdb != nil && t.maxAttempts > 0
}

// checkLock はロック中であれば残り時間を返します。
func (t *loginThrottle) checkLock(ctx context.Context, ip string) (time.Duration, error) {
	if !t.enabled() {
		return 0, nil
	}
	ttl, err := t.rdb.TTL(ctx, throttleLockKeyPrefix+ip).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read login lock: %w", err)
	}
	// キーが無い場合は負の値が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// recordFailure は失敗を記録し、上限に達したらIPをロックします。
func (t *loginThrottle) recordFailure(ctx context.Context, ip string) error {
	if !t.enabled() {
		return nil
	}
	key := throttleFailKeyPrefix + ip
	count, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	if count == 1 {
		if err := t.rdb.Expire(ctx, key, t.window).Err(); err != nil {
			return fmt.Errorf("failed to record login failure: %w", err)
		}
	}
	if count < int64(t.maxAttempts) {
		return nil
	}

	// ロック明けは数え直す
	pipe := t.rdb.TxPipeline()
	pipe.Set(ctx, throttleLockKeyPrefix+ip, 1, t.lockDuration)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to lock login: %w", err)
	}
	return nil
}

func (t *loginThrottle) reset(ctx context.Context, ip string) error {
	if !t.enabled() {
		return nil
	}
	if err := t.rdb.Del(ctx, throttleFailKeyPrefix+ip).Err(); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}
