package model

// CatalogItem is a search/list result from the media catalog. MediaType is
// only set by mixed endpoints (multi-search, trending all) and may be "person".
type CatalogItem struct {
	ID           int64     `json:"id"`
	MediaType    MediaType `json:"media_type,omitempty"`
	Title        string    `json:"title,omitempty"`
	Name         string    `json:"name,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	BackdropPath string    `json:"backdrop_path,omitempty"`
	ProfilePath  string    `json:"profile_path,omitempty"`
	ReleaseDate  string    `json:"release_date,omitempty"`
	FirstAirDate string    `json:"first_air_date,omitempty"`
	VoteAverage  float64   `json:"vote_average"`
	VoteCount    int       `json:"vote_count"`
	Popularity   float64   `json:"popularity"`
	GenreIDs     []int     `json:"genre_ids,omitempty"`
	Character    string    `json:"character,omitempty"`
}

const MediaPerson MediaType = "person"

// Kind infers the media type when the endpoint does not report one.
func (c CatalogItem) Kind() MediaType {
	switch {
	case c.MediaType != "":
		return c.MediaType
	case c.Title != "":
		return MediaMovie
	case c.Name != "":
		return MediaTV
	default:
		return MediaPerson
	}
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CatalogPage struct {
	Page         int           `json:"page"`
	Results      []CatalogItem `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
	Order       int    `json:"order"`
}

type CrewMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job,omitempty"`
	Department  string `json:"department,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type Role struct {
	Character    string `json:"character"`
	EpisodeCount int    `json:"episode_count"`
}

type AggregateCastMember struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	ProfilePath       string `json:"profile_path,omitempty"`
	Roles             []Role `json:"roles"`
	TotalEpisodeCount int    `json:"total_episode_count"`
}

type AggregateCredits struct {
	Cast []AggregateCastMember `json:"cast"`
	Crew []CrewMember          `json:"crew"`
}

type Image struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

type Images struct {
	Backdrops []Image `json:"backdrops,omitempty"`
	Posters   []Image `json:"posters,omitempty"`
	Profiles  []Image `json:"profiles,omitempty"`
}

type MovieDetails struct {
	CatalogItem
	Genres          []Genre      `json:"genres"`
	Runtime         int          `json:"runtime"`
	Tagline         string       `json:"tagline,omitempty"`
	Status          string       `json:"status,omitempty"`
	Credits         *Credits     `json:"credits,omitempty"`
	Recommendations *CatalogPage `json:"recommendations,omitempty"`
	Images          *Images      `json:"images,omitempty"`
}

type ShowDetails struct {
	CatalogItem
	Genres           []Genre           `json:"genres"`
	NumberOfSeasons  int               `json:"number_of_seasons"`
	NumberOfEpisodes int               `json:"number_of_episodes"`
	EpisodeRunTime   []int             `json:"episode_run_time,omitempty"`
	Status           string            `json:"status,omitempty"`
	AggregateCredits *AggregateCredits `json:"aggregate_credits,omitempty"`
	Recommendations  *CatalogPage      `json:"recommendations,omitempty"`
	Images           *Images           `json:"images,omitempty"`
}

type CombinedCredits struct {
	Cast []CatalogItem `json:"cast"`
	Crew []CatalogItem `json:"crew"`
}

type PersonDetails struct {
	ID                 int64            `json:"id"`
	Name               string           `json:"name"`
	Biography          string           `json:"biography,omitempty"`
	Birthday           string           `json:"birthday,omitempty"`
	PlaceOfBirth       string           `json:"place_of_birth,omitempty"`
	ProfilePath        string           `json:"profile_path,omitempty"`
	KnownForDepartment string           `json:"known_for_department,omitempty"`
	CombinedCredits    *CombinedCredits `json:"combined_credits,omitempty"`
	Images             *Images          `json:"images,omitempty"`
}
