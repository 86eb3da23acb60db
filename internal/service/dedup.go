package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DedupIndex remembers inbound email message ids so a webhook delivery and
// a later poll of the same email do not both append a message. Seen only
// checks; the caller calls Record once the message is durable, so an email
// whose append failed stays eligible for the next retry.
type DedupIndex interface {
	Seen(ctx context.Context, messageID string) bool
	Record(ctx context.Context, messageID string)
}

const dedupTTL = 7 * 24 * time.Hour

type redisDedupIndex struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisDedupIndex builds a redis-backed dedup index.
func NewRedisDedupIndex(client *redis.Client, logger *zap.Logger) DedupIndex {
	return &redisDedupIndex{client: client, logger: logger}
}

// Seen reports whether the message id has already been recorded. A redis
// failure fails open: a duplicate append is harmless, a dropped reply is
// not.
func (d *redisDedupIndex) Seen(ctx context.Context, messageID string) bool {
	n, err := d.client.Exists(ctx, dedupKey(messageID)).Result()
	if err != nil {
		d.logger.Warn("dedup index unavailable", zap.Error(err))
		return false
	}
	return n > 0
}

// Record marks the message id as processed.
func (d *redisDedupIndex) Record(ctx context.Context, messageID string) {
	if err := d.client.Set(ctx, dedupKey(messageID), 1, dedupTTL).Err(); err != nil {
		d.logger.Warn("dedup index write failed", zap.Error(err))
	}
}

func dedupKey(messageID string) string {
	return "inbound:msgid:" + messageID
}
