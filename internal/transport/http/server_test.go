package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinelog/internal/config"
	"cinelog/internal/model"
	"cinelog/internal/queue"
	"cinelog/internal/recommend"
	"cinelog/internal/worker"
)

type fixedRecomputer struct {
	store recommend.Store
}

func (f *fixedRecomputer) Superseded(ctx context.Context, userID string, token int64) (bool, error) {
	current, err := f.store.CurrentToken(ctx, userID)
	return current > token, err
}

func (f *fixedRecomputer) Compute(ctx context.Context, userID string) *model.Recommendations {
	out := model.EmptyRecommendations()
	out.TopGenres = []model.GenreScore{{ID: 28, Name: "Action", Avg: 8}}
	return out
}

func (f *fixedRecomputer) Save(ctx context.Context, userID string, token int64, result *model.Recommendations) (bool, error) {
	return f.store.SetIfNewer(ctx, &model.RecommendationState{UserID: userID, Token: token, Result: result})
}

func TestNewPipeline_InProcessWithoutRedis(t *testing.T) {
	ctx := context.Background()

	pl, err := newPipeline(ctx, &config.Config{})
	require.NoError(t, err)
	require.IsType(t, &recommend.MemoryStore{}, pl.store)

	require.NoError(t, pl.start(ctx, worker.NewHandler(&fixedRecomputer{store: pl.store})))

	token, err := pl.store.NextToken(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, pl.dispatcher.Dispatch(ctx, queue.NewRecomputeJob("u1", token)))
	pl.stop()

	state, err := pl.store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, token, state.Token)
	assert.Equal(t, "Action", state.Result.TopGenres[0].Name)
}
