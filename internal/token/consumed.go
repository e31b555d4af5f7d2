package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const consumedKeyPrefix = "token:used:"

// ConsumedTokens records action tokens that already executed, making a
// forwarded or replayed link fail before it reaches the workflow. Entries
// expire together with the token itself, so the set stays bounded.
//
// This is an additional guard only: a caller that slips past it still loses
// the conditional status write once the document is terminal.
type ConsumedTokens struct {
	rdb *redis.Client
}

func NewConsumedTokens(rdb *redis.Client) *ConsumedTokens {
	return &ConsumedTokens{rdb: rdb}
}

// MarkUsed records tok as consumed. It returns false when the token was
// already marked by an earlier call.
func (s *ConsumedTokens) MarkUsed(ctx context.Context, tok string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.rdb.SetNX(ctx, consumedKeyPrefix+Fingerprint(tok), 1, ttl).Result()
}

// Used reports whether tok was already consumed.
func (s *ConsumedTokens) Used(ctx context.Context, tok string) (bool, error) {
	n, err := s.rdb.Exists(ctx, consumedKeyPrefix+Fingerprint(tok)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
