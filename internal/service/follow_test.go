package service

import (
	"context"
	"errors"
	"testing"

	"cinelog/internal/model"
)

func newTestFollowService() (*FollowService, *memFollowRepo) {
	users := newMemUserRepo(
		model.User{UID: "u1", Username: "alice"},
		model.User{UID: "u2", Username: "bob"},
	)
	follows := newMemFollowRepo()
	return NewFollowService(follows, users), follows
}

func TestFollowService_Follow_Errors(t *testing.T) {
	svc, _ := newTestFollowService()
	ctx := context.Background()

	tests := []struct {
		name      string
		follower  string
		following string
		wantErr   error
	}{
		{"missing follower", "", "u2", model.ErrMissingIdentifiers},
		{"missing target", "u1", "", model.ErrMissingIdentifiers},
		{"self", "u1", "u1", model.ErrCannotFollowSelf},
		{"unknown target", "u1", "ghost", model.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Follow(ctx, tt.follower, tt.following); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFollowService_ToggleTwiceRestoresState(t *testing.T) {
	svc, _ := newTestFollowService()
	ctx := context.Background()

	for _, start := range []bool{false, true} {
		if start {
			if err := svc.Follow(ctx, "u1", "u2"); err != nil {
				t.Fatal(err)
			}
		}

		first, err := svc.ToggleFollow(ctx, "u1", "u2")
		if err != nil {
			t.Fatal(err)
		}
		if first == start {
			t.Errorf("start=%v: first toggle returned %v", start, first)
		}

		second, err := svc.ToggleFollow(ctx, "u1", "u2")
		if err != nil {
			t.Fatal(err)
		}
		if second != start {
			t.Errorf("start=%v: second toggle returned %v", start, second)
		}

		now, _ := svc.IsFollowing(ctx, "u1", "u2")
		if now != start {
			t.Errorf("start=%v: state after two toggles = %v", start, now)
		}
		svc.Unfollow(ctx, "u1", "u2")
	}
}

func TestFollowService_Lists(t *testing.T) {
	svc, _ := newTestFollowService()
	ctx := context.Background()

	if err := svc.Follow(ctx, "u1", "u2"); err != nil {
		t.Fatal(err)
	}
	following, _ := svc.GetFollowingIDs(ctx, "u1")
	followers, _ := svc.GetFollowerIDs(ctx, "u2")
	if len(following) != 1 || following[0] != "u2" {
		t.Errorf("following = %v", following)
	}
	if len(followers) != 1 || followers[0] != "u1" {
		t.Errorf("followers = %v", followers)
	}

	if ok, err := svc.IsFollowing(ctx, "", "u2"); ok || err != nil {
		t.Errorf("IsFollowing with missing id = %v, %v", ok, err)
	}
}
