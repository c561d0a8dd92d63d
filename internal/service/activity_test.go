package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"cinelog/internal/model"
)

func ptr(f float64) *float64 { return &f }

func TestActivityService_UpdateStatus_Validation(t *testing.T) {
	svc := NewActivityService(newMemActivityRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		titleID int64
		req     model.UpdateStatusRequest
		wantErr error
	}{
		{"missing user", "", 1, model.UpdateStatusRequest{MediaType: model.MediaMovie, Status: model.StatusWatched}, model.ErrMissingIdentifiers},
		{"missing title", "u1", 0, model.UpdateStatusRequest{MediaType: model.MediaMovie, Status: model.StatusWatched}, model.ErrMissingIdentifiers},
		{"missing media type", "u1", 1, model.UpdateStatusRequest{Status: model.StatusWatched}, model.ErrMissingIdentifiers},
		{"missing status", "u1", 1, model.UpdateStatusRequest{MediaType: model.MediaMovie}, model.ErrMissingIdentifiers},
		{"bad media type", "u1", 1, model.UpdateStatusRequest{MediaType: "book", Status: model.StatusWatched}, model.ErrInvalidMediaType},
		{"bad status", "u1", 1, model.UpdateStatusRequest{MediaType: model.MediaTV, Status: "dropped"}, model.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(ctx, tt.userID, tt.titleID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeRating(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want *float64
	}{
		{"absent", nil, nil},
		{"zero kept", ptr(0), ptr(0)},
		{"ten kept", ptr(10), ptr(10)},
		{"fraction kept", ptr(7.5), ptr(7.5)},
		{"negative dropped", ptr(-1), nil},
		{"above ten dropped", ptr(10.5), nil},
		{"NaN dropped", ptr(math.NaN()), nil},
		{"Inf dropped", ptr(math.Inf(1)), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRating(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %v, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("got %v, want %v", got, *tt.want)
			}
		})
	}
}

func TestNormalizeReview(t *testing.T) {
	if got := NormalizeReview("  great film  "); got != "great film" {
		t.Errorf("trim: got %q", got)
	}
	long := strings.Repeat("é", 600)
	if got := NormalizeReview(long); utf8.RuneCountInString(got) != model.MaxReviewLength {
		t.Errorf("truncate: got %d runes, want %d", utf8.RuneCountInString(got), model.MaxReviewLength)
	}
}

func TestActivityService_UpdateStatus_IsUpsert(t *testing.T) {
	repo := newMemActivityRepo()
	notifier := &recordingNotifier{}
	svc := NewActivityService(repo, notifier)
	ctx := context.Background()

	req := model.UpdateStatusRequest{MediaType: model.MediaMovie, Status: model.StatusWatched, Rating: ptr(8), Review: "ok"}
	for i := 0; i < 2; i++ {
		if _, err := svc.UpdateStatus(ctx, "u1", 550, req); err != nil {
			t.Fatalf("UpdateStatus #%d: %v", i+1, err)
		}
	}

	all, _ := repo.ListByUser(ctx, "u1")
	if len(all) != 1 {
		t.Fatalf("stored %d records, want 1", len(all))
	}
	if len(notifier.users) != 2 || notifier.users[0] != "u1" {
		t.Errorf("notifications = %v", notifier.users)
	}
}

func TestActivityService_StaleRatingSurvivesStatusChange(t *testing.T) {
	repo := newMemActivityRepo()
	svc := NewActivityService(repo, nil)
	ctx := context.Background()

	svc.UpdateStatus(ctx, "u1", 1, model.UpdateStatusRequest{MediaType: model.MediaMovie, Status: model.StatusWatched, Rating: ptr(9)})
	svc.UpdateStatus(ctx, "u1", 1, model.UpdateStatusRequest{MediaType: model.MediaMovie, Status: model.StatusWatching, Rating: ptr(9)})

	rec, err := svc.GetStatus(ctx, "u1", 1)
	if err != nil || rec == nil {
		t.Fatalf("GetStatus: %v, %v", rec, err)
	}
	if rec.Status != model.StatusWatching || rec.Rating == nil || *rec.Rating != 9 {
		t.Errorf("record = %+v, want watching with rating 9 kept", rec)
	}
}

func TestActivityService_GetAndRemove(t *testing.T) {
	repo := newMemActivityRepo()
	svc := NewActivityService(repo, nil)
	ctx := context.Background()

	if rec, err := svc.GetStatus(ctx, "u1", 42); rec != nil || err != nil {
		t.Errorf("missing record = %v, %v, want nil, nil", rec, err)
	}
	if rec, err := svc.GetStatus(ctx, "", 42); rec != nil || err != nil {
		t.Errorf("missing id = %v, %v, want nil, nil", rec, err)
	}

	svc.UpdateStatus(ctx, "u1", 42, model.UpdateStatusRequest{MediaType: model.MediaTV, Status: model.StatusWatchlist})
	if err := svc.RemoveStatus(ctx, "u1", 42); err != nil {
		t.Fatalf("RemoveStatus: %v", err)
	}
	if rec, _ := svc.GetStatus(ctx, "u1", 42); rec != nil {
		t.Errorf("record still present after remove: %+v", rec)
	}

	if err := svc.RemoveStatus(ctx, "", 42); !errors.Is(err, model.ErrMissingIdentifiers) {
		t.Errorf("RemoveStatus without user err = %v", err)
	}
}

func TestActivityService_UpdateStatus_RepoFailureSkipsNotify(t *testing.T) {
	repo := newMemActivityRepo()
	repo.upsertErr = errors.New("unavailable")
	notifier := &recordingNotifier{}
	svc := NewActivityService(repo, notifier)

	_, err := svc.UpdateStatus(context.Background(), "u1", 7, model.UpdateStatusRequest{MediaType: model.MediaMovie, Status: model.StatusWatched})
	if err == nil {
		t.Fatal("expected error")
	}
	if repo.upsertCalls != 1 || len(notifier.users) != 0 {
		t.Errorf("upsertCalls = %d, notifications = %v", repo.upsertCalls, notifier.users)
	}
}
