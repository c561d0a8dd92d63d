package model

import (
	"errors"
	"fmt"
)

// FollowEdge is a directed follower -> following relationship.
type FollowEdge struct {
	FollowerID  string `firestore:"followerId" db:"follower_id" json:"follower_id"`
	FollowingID string `firestore:"followingId" db:"following_id" json:"following_id"`
}

// FollowKey is the document id of a follow edge.
func FollowKey(followerID, followingID string) string {
	return fmt.Sprintf("%s_%s", followerID, followingID)
}

type FollowState struct {
	Following bool `json:"following"`
}

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
