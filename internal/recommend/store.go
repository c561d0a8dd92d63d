package recommend

import (
	"context"
	"sync"

	"cinelog/internal/model"
)

// TokenStore hands out per-user request tokens. Tokens only grow, so a
// larger token always belongs to a later request.
type TokenStore interface {
	NextToken(ctx context.Context, userID string) (int64, error)
	CurrentToken(ctx context.Context, userID string) (int64, error)
}

// StateStore keeps the latest computed recommendations per user.
type StateStore interface {
	// Load returns nil, nil when nothing is stored for the user.
	Load(ctx context.Context, userID string) (*model.RecommendationState, error)

	// SetIfNewer stores state unless a state with a higher token is already
	// stored, and reports whether it was written.
	SetIfNewer(ctx context.Context, state *model.RecommendationState) (bool, error)
}

// Store is the storage the recommendation pipeline needs.
type Store interface {
	TokenStore
	StateStore
}

// MemoryStore is the single-process Store used when Redis is not configured.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]int64
	states map[string]model.RecommendationState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]int64),
		states: make(map[string]model.RecommendationState),
	}
}

func (s *MemoryStore) NextToken(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID]++
	return s.tokens[userID], nil
}

func (s *MemoryStore) CurrentToken(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[userID], nil
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (*model.RecommendationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *MemoryStore) SetIfNewer(ctx context.Context, state *model.RecommendationState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.states[state.UserID]; ok && cur.Token > state.Token {
		return false, nil
	}
	s.states[state.UserID] = *state
	return true, nil
}
