package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cinelog/internal/logging"
)

// DefaultMaxLen caps the stream; older acknowledged jobs are trimmed.
const DefaultMaxLen = 10000

// Publisher adds jobs to a stream.
type Publisher interface {
	// Publish returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, job RecomputeJob) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		logger: logging.Component("publisher"),
	}
}

// Publish adds a job to the stream using XADD with an auto-generated ID and
// approximate MAXLEN trimming.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, job RecomputeJob) (string, error) {
	startTime := time.Now()

	values, err := job.ToMap()
	if err != nil {
		p.logger.Error().Err(err).Str("stream", stream).Msg("Publish FAILED")
		return "", fmt.Errorf("serialize job: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: DefaultMaxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		p.logger.Error().Err(err).Str("stream", stream).Str(logging.FieldUserID, job.UserID).Msg("Publish FAILED")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.logger.Debug().
		Str("stream", stream).
		Str("msg_id", messageID).
		Str(logging.FieldUserID, job.UserID).
		Int64("token", job.Token).
		Dur("duration", time.Since(startTime)).
		Msg("Publish OK")
	return messageID, nil
}

// Dispatch publishes a recompute job onto the recommendation stream.
func (p *RedisPublisher) Dispatch(ctx context.Context, job RecomputeJob) error {
	_, err := p.Publish(ctx, StreamRecommend, job)
	return err
}
