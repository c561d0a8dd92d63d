package model

import (
	"errors"
	"fmt"
	"time"
)

type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

func (m MediaType) Valid() bool {
	return m == MediaMovie || m == MediaTV
}

type Status string

const (
	StatusWatchlist Status = "watchlist"
	StatusWatching  Status = "watching"
	StatusWatched   Status = "watched"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWatchlist, StatusWatching, StatusWatched:
		return true
	}
	return false
}

const (
	MaxReviewLength = 500
	MinRating       = 0
	MaxRating       = 10
)

// ActivityRecord is one user's status for one catalog title. The pair
// (UserID, TitleID) is the identity; writes overwrite.
//
// Rating is not cleared when the status moves away from watched, so a stale
// rating can be read back under watchlist or watching.
type ActivityRecord struct {
	UserID    string    `firestore:"userId" db:"user_id" json:"user_id"`
	TitleID   int64     `firestore:"tmdbId" db:"title_id" json:"title_id"`
	MediaType MediaType `firestore:"mediaType" db:"media_type" json:"media_type"`
	Status    Status    `firestore:"status" db:"status" json:"status"`
	Rating    *float64  `firestore:"rating" db:"rating" json:"rating"`
	Review    string    `firestore:"review" db:"review" json:"review"`
	UpdatedAt time.Time `firestore:"timestamp" db:"updated_at" json:"updated_at"`
}

// Key is the document id of the record.
func (a *ActivityRecord) Key() string {
	return ActivityKey(a.UserID, a.TitleID)
}

func ActivityKey(userID string, titleID int64) string {
	return fmt.Sprintf("%s_%d", userID, titleID)
}

type UpdateStatusRequest struct {
	MediaType MediaType `json:"media_type" validate:"required,oneof=movie tv"`
	Status    Status    `json:"status" validate:"required,oneof=watchlist watching watched"`
	Rating    *float64  `json:"rating"`
	Review    string    `json:"review"`
}

var (
	ErrMissingIdentifiers = errors.New("user id, title id, media type and status are required")
	ErrInvalidStatus      = errors.New("status must be one of watchlist, watching, watched")
	ErrInvalidMediaType   = errors.New("media type must be movie or tv")
	ErrActivityNotFound   = errors.New("activity not found")
)
