package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/horeca/internal/apperr"
)

const (
	lockTTL   = 5 * time.Second
	lockRetry = 10 * time.Millisecond
)

// unlock deletes the lock only while it still holds our token.
var unlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type state struct {
	Cart     Cart     `json:"cart"`
	Wishlist Wishlist `json:"wishlist"`
}

// Redis keeps sessions in Redis so every server instance sees the same cart.
// A per-session lock key serializes mutations across instances.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: "horeca:cart:", ttl: ttl}
}

func (s *Redis) With(ctx context.Context, id string, fn func(c *Cart, w *Wishlist) error) error {
	key := s.prefix + id
	token, err := s.lock(ctx, key+":lock")
	if err != nil {
		return err
	}
	defer unlock.Run(context.WithoutCancel(ctx), s.client, []string{key + ":lock"}, token)

	var st state
	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return storeErr(err)
	default:
		if json.Unmarshal(data, &st) != nil {
			st = state{}
		}
	}

	if err := fn(&st.Cart, &st.Wishlist); err != nil {
		return err
	}
	data, err = json.Marshal(st)
	if err != nil {
		return err
	}
	return storeErr(s.client.Set(ctx, key, data, s.ttl).Err())
}

// lock spins until the session lock is ours or ctx ends. The lock expires on
// its own if the holder dies.
func (s *Redis) lock(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	for {
		ok, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return "", storeErr(err)
		}
		if ok {
			return token, nil
		}
		t := time.NewTimer(lockRetry)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", apperr.FromStore(ctx.Err(), "cart")
		case <-t.C:
		}
	}
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.FromStore(err, "cart")
	}
	return apperr.New(apperr.KindTransient, apperr.CodeStoreUnavailable, "cart store unavailable, retry", err)
}
