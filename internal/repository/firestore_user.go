package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cinelog/internal/model"
)

const (
	collectionUsers     = "users"
	collectionUsernames = "usernames"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

// Create writes users/{uid} and usernames/{lower(username)} in one
// transaction, so two signups racing for a name cannot both succeed.
func (r *firestoreUserRepository) Create(ctx context.Context, u *model.User) error {
	userRef := r.client.Collection(collectionUsers).Doc(u.UID)
	nameRef := r.client.Collection(collectionUsernames).Doc(strings.ToLower(u.Username))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(nameRef)
		switch {
		case err == nil && snap.Exists():
			return model.ErrUsernameExists
		case err != nil && status.Code(err) != codes.NotFound:
			return err
		}

		if err := tx.Create(nameRef, map[string]interface{}{"uid": u.UID}); err != nil {
			return err
		}
		return tx.Set(userRef, u)
	})
	if err != nil {
		if errors.Is(err, model.ErrUsernameExists) || status.Code(err) == codes.AlreadyExists {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*model.User, error) {
	snap, err := r.client.Collection(collectionUsers).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return decodeUser(snap)
}

func (r *firestoreUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	docs, err := r.client.Collection(collectionUsers).
		Where("username", "==", username).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if len(docs) == 0 {
		return nil, model.ErrUserNotFound
	}
	return decodeUser(docs[0])
}

func (r *firestoreUserRepository) GetByIDs(ctx context.Context, uids []string) ([]model.User, error) {
	if len(uids) == 0 {
		return []model.User{}, nil
	}

	refs := make([]*firestore.DocumentRef, len(uids))
	for i, uid := range uids {
		refs[i] = r.client.Collection(collectionUsers).Doc(uid)
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		// Batch read failed; fall back to single reads and drop the ones that fail.
		log.Printf("[UserRepo] GetByIDs batch FAILED, falling back: count=%d err=%v", len(uids), err)
		return r.getEach(ctx, uids), nil
	}

	users := make([]model.User, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		u, err := decodeUser(snap)
		if err != nil {
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

func (r *firestoreUserRepository) getEach(ctx context.Context, uids []string) []model.User {
	users := make([]model.User, 0, len(uids))
	for _, uid := range uids {
		u, err := r.GetByID(ctx, uid)
		if err != nil {
			continue
		}
		users = append(users, *u)
	}
	return users
}

func (r *firestoreUserRepository) FindByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]model.User, error) {
	if prefix == "" {
		return []model.User{}, nil
	}

	q := r.client.Collection(collectionUsers).
		Where("username", ">=", prefix).
		Where("username", "<=", prefix+"\uf8ff").
		OrderBy("username", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		u, err := decodeUser(doc)
		if err != nil {
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

func decodeUser(snap *firestore.DocumentSnapshot) (*model.User, error) {
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", snap.Ref.ID, err)
	}
	if u.UID == "" {
		u.UID = snap.Ref.ID
	}
	return &u, nil
}
