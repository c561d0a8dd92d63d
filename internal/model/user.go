package model

import (
	"errors"
	"time"
)

// User is the public profile document stored per identity.
type User struct {
	UID       string    `firestore:"uid" db:"uid" json:"uid"`
	Username  string    `firestore:"username" db:"username" json:"username"`
	Email     string    `firestore:"email" db:"email" json:"email"`
	CreatedAt time.Time `firestore:"createdAt" db:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updatedAt" db:"updated_at" json:"updated_at"`
}

// DisplayName prefers the username, then the email, then the raw id.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	default:
		return u.UID
	}
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,username"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type ProfileStats struct {
	WatchedMovies int `json:"watched_movies"`
	WatchedShows  int `json:"watched_shows"`
	TotalWatched  int `json:"total_watched"`
}

type Profile struct {
	User        *User            `json:"user"`
	Stats       ProfileStats     `json:"stats"`
	Activity    []ActivityRecord `json:"activity"`
	Following   []User           `json:"following"`
	Followers   []User           `json:"followers"`
	IsFollowing bool             `json:"is_following"`
	IsOwner     bool             `json:"is_owner"`
}

var (
	ErrUserNotFound = errors.New("user not found")

	ErrUsernameExists = errors.New("username already exists")

	ErrInvalidUsername = errors.New("username must be 3-20 characters: letters, numbers, underscore or hyphen")

	ErrInvalidCredentials = errors.New("invalid credentials")
)
