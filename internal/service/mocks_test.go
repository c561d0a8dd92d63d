package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cinelog/internal/identity"
	"cinelog/internal/model"
)

// =============================================================================
// IN-MEMORY REPOSITORIES
// =============================================================================

type memActivityRepo struct {
	mu      sync.Mutex
	records map[string]model.ActivityRecord

	upsertCalls int
	upsertErr   error
}

func newMemActivityRepo() *memActivityRepo {
	return &memActivityRepo{records: make(map[string]model.ActivityRecord)}
}

func (m *memActivityRepo) Upsert(ctx context.Context, rec *model.ActivityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.records[rec.Key()] = *rec
	return nil
}

func (m *memActivityRepo) Get(ctx context.Context, userID string, titleID int64) (*model.ActivityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[model.ActivityKey(userID, titleID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memActivityRepo) Delete(ctx context.Context, userID string, titleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, model.ActivityKey(userID, titleID))
	return nil
}

func (m *memActivityRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memActivityRepo) ListWatchedMovies(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	all, _ := m.ListRecentByUser(ctx, userID, 0)
	var out []model.ActivityRecord
	for _, r := range all {
		if r.MediaType == model.MediaMovie && r.Status == model.StatusWatched {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memActivityRepo) ListByUser(ctx context.Context, userID string) ([]model.ActivityRecord, error) {
	return m.ListRecentByUser(ctx, userID, 0)
}

type memFollowRepo struct {
	mu    sync.Mutex
	edges map[string]model.FollowEdge
}

func newMemFollowRepo() *memFollowRepo {
	return &memFollowRepo{edges: make(map[string]model.FollowEdge)}
}

func (m *memFollowRepo) Follow(ctx context.Context, followerID, followingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[model.FollowKey(followerID, followingID)] = model.FollowEdge{FollowerID: followerID, FollowingID: followingID}
	return nil
}

func (m *memFollowRepo) Unfollow(ctx context.Context, followerID, followingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.edges, model.FollowKey(followerID, followingID))
	return nil
}

func (m *memFollowRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[model.FollowKey(followerID, followingID)]
	return ok, nil
}

func (m *memFollowRepo) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, e := range m.edges {
		if e.FollowerID == userID {
			ids = append(ids, e.FollowingID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memFollowRepo) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, e := range m.edges {
		if e.FollowingID == userID {
			ids = append(ids, e.FollowerID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User

	createFn    func(ctx context.Context, user *model.User) error
	createCalls int
}

func newMemUserRepo(users ...model.User) *memUserRepo {
	m := &memUserRepo{users: make(map[string]model.User)}
	for _, u := range users {
		m.users[u.UID] = u
	}
	return m
}

func (m *memUserRepo) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Username, user.Username) {
			return model.ErrUsernameExists
		}
	}
	m.users[user.UID] = *user
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, uid string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *memUserRepo) GetByIDs(ctx context.Context, uids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, id := range uids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserRepo) FindByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.users {
		if strings.HasPrefix(u.Username, prefix) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// MOCK IDENTITY PROVIDER
// =============================================================================

type mockProvider struct {
	signUpFn func(ctx context.Context, email, password string) (*identity.Identity, error)
	signInFn func(ctx context.Context, email, password string) (*identity.Identity, error)

	signUpCalls int
	deleted     []string
}

func (m *mockProvider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	m.signUpCalls++
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password)
	}
	return &identity.Identity{UID: "uid-" + email, Email: email}, nil
}

func (m *mockProvider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, &identity.Error{Code: identity.CodeInvalidCredential}
}

func (m *mockProvider) Delete(ctx context.Context, uid string) error {
	m.deleted = append(m.deleted, uid)
	return nil
}

// recordingNotifier remembers which users were reported as changed.
type recordingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingNotifier) Trigger(userID string) {
	r.mu.Lock()
	r.users = append(r.users, userID)
	r.mu.Unlock()
}
