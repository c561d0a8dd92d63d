package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cinelog/internal/logging"
)

// Message is one job read from a stream.
type Message struct {
	ID  string // Redis message ID (e.g., "1702000000000-0")
	Job RecomputeJob
}

// Consumer reads jobs from a stream as part of a consumer group.
type Consumer interface {
	// EnsureGroup creates the consumer group (and stream) if missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns new messages for this consumer, blocking up to block.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to this consumer but never
	// acknowledged, e.g. after a crash.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	Ack(ctx context.Context, stream, group string, messageIDs ...string) error

	// Pending returns the number of unacknowledged messages for the group.
	Pending(ctx context.Context, stream, group string) (int64, error)
}

// RedisConsumer implements Consumer using Redis Streams.
type RedisConsumer struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewConsumer(client *redis.Client) *RedisConsumer {
	return &RedisConsumer{
		client: client,
		logger: logging.Component("consumer"),
	}
}

// EnsureGroup uses XGROUP CREATE ... MKSTREAM starting at "0", so jobs queued
// before the first worker started are still processed.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			c.logger.Debug().Str("stream", stream).Str("group", group).Msg("EnsureGroup: already exists")
			return nil
		}
		c.logger.Error().Err(err).Str("stream", stream).Str("group", group).Msg("EnsureGroup FAILED")
		return fmt.Errorf("create consumer group: %w", err)
	}

	c.logger.Info().Str("stream", stream).Str("group", group).Msg("EnsureGroup OK (created)")
	return nil
}

// Read uses XREADGROUP with ">" so only never-delivered messages come back.
func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	startTime := time.Now()

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("stream", stream).Str("consumer", consumer).Msg("Read FAILED")
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	messages := c.parse(ctx, stream, group, streams)
	if len(messages) > 0 {
		c.logger.Debug().
			Str("stream", stream).
			Str("consumer", consumer).
			Int("count", len(messages)).
			Dur("duration", time.Since(startTime)).
			Msg("Read OK")
	}
	return messages, nil
}

// ReadPending uses "0" instead of ">" to replay this consumer's pending list.
func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("stream", stream).Str("consumer", consumer).Msg("ReadPending FAILED")
		return nil, fmt.Errorf("xreadgroup pending: %w", err)
	}

	messages := c.parse(ctx, stream, group, streams)
	c.logger.Debug().Str("consumer", consumer).Int("count", len(messages)).Msg("ReadPending OK")
	return messages, nil
}

// parse decodes stream entries. Malformed entries are acknowledged and
// dropped so they do not sit in the pending list forever.
func (c *RedisConsumer) parse(ctx context.Context, stream, group string, streams []redis.XStream) []Message {
	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			job, err := ParseRecomputeJob(msg.Values)
			if err != nil {
				c.logger.Warn().Err(err).Str("msg_id", msg.ID).Msg("dropping malformed job")
				_ = c.Ack(ctx, stream, group, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Job: job})
		}
	}
	return messages
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		c.logger.Warn().Err(err).Str("stream", stream).Strs("ids", messageIDs).Msg("Ack FAILED")
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	info, err := c.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending: %w", err)
	}
	return info.Count, nil
}
