package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-api-otp/internal/config"
	"github.com/go-api-otp/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// NewClient builds a go-redis client from config.
func NewClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// OTPStore keeps each pending code in a hash under otp:<identifier>.
// Keys expire at ExpiresAt plus retention.
type OTPStore struct {
	rdb       goredis.UniversalClient
	retention time.Duration
}

func NewOTPStore(rdb goredis.UniversalClient, retention time.Duration) *OTPStore {
	return &OTPStore{rdb: rdb, retention: retention}
}

type otpHash struct {
	Code      string `redis:"code"`
	IssuedAt  int64  `redis:"issued_at"`
	ExpiresAt int64  `redis:"expires_at"`
}

func key(identifier string) string { return otpKeyPrefix + identifier }

func (s *OTPStore) Put(ctx context.Context, rec *domain.OTPRecord) error {
	k := key(rec.Identifier)
	h := otpHash{
		Code:      rec.Code,
		IssuedAt:  rec.IssuedAt.UnixMilli(),
		ExpiresAt: rec.ExpiresAt.UnixMilli(),
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, h)
		pipe.PExpireAt(ctx, k, rec.ExpiresAt.Add(s.retention))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put otp: %w", err)
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, identifier string) (*domain.OTPRecord, error) {
	res := s.rdb.HGetAll(ctx, key(identifier))
	vals, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("redis get otp: %w", err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var h otpHash
	if err := res.Scan(&h); err != nil {
		return nil, fmt.Errorf("decode otp: %w", err)
	}
	return &domain.OTPRecord{
		Identifier: identifier,
		Code:       h.Code,
		IssuedAt:   time.UnixMilli(h.IssuedAt).UTC(),
		ExpiresAt:  time.UnixMilli(h.ExpiresAt).UTC(),
	}, nil
}

func (s *OTPStore) Delete(ctx context.Context, identifier string) error {
	if err := s.rdb.Del(ctx, key(identifier)).Err(); err != nil {
		return fmt.Errorf("redis delete otp: %w", err)
	}
	return nil
}
