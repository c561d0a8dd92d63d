package model

import "time"

// GenreScore aggregates a user's watched-movie ratings for one genre.
type GenreScore struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
}

type Recommendations struct {
	InterestBased     []CatalogItem `json:"interest_based"`
	BecauseYouWatched []CatalogItem `json:"because_you_watched"`
	TopMovie          *MovieDetails `json:"top_movie"`
	TopGenres         []GenreScore  `json:"top_genres"`
}

// EmptyRecommendations is the result for users without usable history and the
// fallback whenever the computation cannot proceed.
func EmptyRecommendations() *Recommendations {
	return &Recommendations{
		InterestBased:     []CatalogItem{},
		BecauseYouWatched: []CatalogItem{},
		TopGenres:         []GenreScore{},
	}
}

func (r *Recommendations) IsEmpty() bool {
	return r == nil || (len(r.InterestBased) == 0 && len(r.BecauseYouWatched) == 0 &&
		r.TopMovie == nil && len(r.TopGenres) == 0)
}

// RecommendationState is what gets stored per user: the result plus the token
// of the computation that produced it.
type RecommendationState struct {
	UserID     string           `json:"user_id"`
	Token      int64            `json:"token"`
	ComputedAt time.Time        `json:"computed_at"`
	Result     *Recommendations `json:"result"`
}
