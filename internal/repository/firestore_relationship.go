package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cinelog/internal/model"
)

const collectionRelationships = "relationships"

type firestoreRelationshipRepository struct {
	client *firestore.Client
}

func NewFirestoreRelationshipRepository(client *firestore.Client) RelationshipRepository {
	return &firestoreRelationshipRepository{client: client}
}

func (r *firestoreRelationshipRepository) doc(followerID, followingID string) *firestore.DocumentRef {
	return r.client.Collection(collectionRelationships).Doc(model.FollowKey(followerID, followingID))
}

func (r *firestoreRelationshipRepository) Follow(ctx context.Context, followerID, followingID string) error {
	edge := model.FollowEdge{FollowerID: followerID, FollowingID: followingID}
	if _, err := r.doc(followerID, followingID).Set(ctx, edge); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

func (r *firestoreRelationshipRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	if _, err := r.doc(followerID, followingID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return nil
}

func (r *firestoreRelationshipRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	snap, err := r.doc(followerID, followingID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return snap.Exists(), nil
}

func (r *firestoreRelationshipRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.edgeIDs(ctx, "followerId", userID, func(e model.FollowEdge) string { return e.FollowingID })
}

func (r *firestoreRelationshipRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.edgeIDs(ctx, "followingId", userID, func(e model.FollowEdge) string { return e.FollowerID })
}

func (r *firestoreRelationshipRepository) edgeIDs(ctx context.Context, field, userID string, pick func(model.FollowEdge) string) ([]string, error) {
	docs, err := r.client.Collection(collectionRelationships).Where(field, "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		var edge model.FollowEdge
		if err := doc.DataTo(&edge); err != nil {
			continue
		}
		if id := pick(edge); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
