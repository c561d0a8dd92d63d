package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cinelog/internal/logging"
	"cinelog/internal/model"
)

const (
	// TokenKeyPrefix holds the per-user request counter.
	TokenKeyPrefix = "rec:token:"

	// StateKeyPrefix holds a hash {token, data} with the latest result.
	StateKeyPrefix = "rec:state:"

	// StateTTL bounds how long an untouched result lives (7 days).
	StateTTL = 7 * 24 * time.Hour
)

// setIfNewer writes the state hash unless it already holds a higher token.
// KEYS[1] state key; ARGV[1] token, ARGV[2] payload, ARGV[3] ttl seconds.
var setIfNewer = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], 'token') or '0')
if cur > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'token', ARGV[1], 'data', ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RecommendationCache stores request tokens and computed recommendations in
// Redis so every API instance and worker sees the same state.
type RecommendationCache struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRecommendationCache(client *redis.Client) *RecommendationCache {
	return &RecommendationCache{
		client: client,
		logger: logging.Component("rec_cache"),
	}
}

func tokenKey(userID string) string { return TokenKeyPrefix + userID }
func stateKey(userID string) string { return StateKeyPrefix + userID }

// NextToken increments the user's counter with INCR.
func (c *RecommendationCache) NextToken(ctx context.Context, userID string) (int64, error) {
	token, err := c.client.Incr(ctx, tokenKey(userID)).Result()
	if err != nil {
		c.logger.Error().Err(err).Str(logging.FieldUserID, userID).Msg("NextToken FAILED")
		return 0, fmt.Errorf("incr token: %w", err)
	}
	return token, nil
}

// CurrentToken returns 0 when no token was ever issued.
func (c *RecommendationCache) CurrentToken(ctx context.Context, userID string) (int64, error) {
	token, err := c.client.Get(ctx, tokenKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func (c *RecommendationCache) Load(ctx context.Context, userID string) (*model.RecommendationState, error) {
	data, err := c.client.HGet(ctx, stateKey(userID), "data").Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str(logging.FieldUserID, userID).Msg("Load FAILED")
		return nil, fmt.Errorf("load recommendations: %w", err)
	}

	var state model.RecommendationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return &state, nil
}

func (c *RecommendationCache) SetIfNewer(ctx context.Context, state *model.RecommendationState) (bool, error) {
	startTime := time.Now()

	payload, err := json.Marshal(state)
	if err != nil {
		return false, fmt.Errorf("encode recommendations: %w", err)
	}

	written, err := setIfNewer.Run(ctx, c.client,
		[]string{stateKey(state.UserID)},
		strconv.FormatInt(state.Token, 10),
		string(payload),
		int64(StateTTL/time.Second),
	).Int()
	if err != nil {
		c.logger.Error().Err(err).Str(logging.FieldUserID, state.UserID).Msg("SetIfNewer FAILED")
		return false, fmt.Errorf("store recommendations: %w", err)
	}

	c.logger.Debug().
		Str(logging.FieldUserID, state.UserID).
		Int64("token", state.Token).
		Bool("written", written == 1).
		Dur("duration", time.Since(startTime)).
		Msg("SetIfNewer OK")
	return written == 1, nil
}
