package catalog

import (
	"fmt"

	"cinelog/internal/model"
)

// Genre ids are fixed by TMDb and kept locally so lookups never hit the API.
var movieGenres = []model.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 14, Name: "Fantasy"},
	{ID: 36, Name: "History"},
	{ID: 27, Name: "Horror"},
	{ID: 10402, Name: "Music"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10749, Name: "Romance"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 10770, Name: "TV Movie"},
	{ID: 53, Name: "Thriller"},
	{ID: 10752, Name: "War"},
	{ID: 37, Name: "Western"},
}

var tvGenres = []model.Genre{
	{ID: 10759, Name: "Action & Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 10762, Name: "Kids"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10763, Name: "News"},
	{ID: 10764, Name: "Reality"},
	{ID: 10765, Name: "Sci-Fi & Fantasy"},
	{ID: 10766, Name: "Soap"},
	{ID: 10767, Name: "Talk"},
	{ID: 10768, Name: "War & Politics"},
	{ID: 37, Name: "Western"},
}

var genreIndex = map[model.MediaType]map[int]string{
	model.MediaMovie: index(movieGenres),
	model.MediaTV:    index(tvGenres),
}

func index(genres []model.Genre) map[int]string {
	m := make(map[int]string, len(genres))
	for _, g := range genres {
		m[g.ID] = g.Name
	}
	return m
}

// Genres returns the static genre table for a media type.
func Genres(mediaType model.MediaType) []model.Genre {
	var src []model.Genre
	switch mediaType {
	case model.MediaMovie:
		src = movieGenres
	case model.MediaTV:
		src = tvGenres
	default:
		return nil
	}
	out := make([]model.Genre, len(src))
	copy(out, src)
	return out
}

// GenreName returns the name for id, or "" when the id is unknown. Media
// types other than tv use the movie table.
func GenreName(id int, mediaType model.MediaType) string {
	table, ok := genreIndex[mediaType]
	if !ok {
		table = genreIndex[model.MediaMovie]
	}
	return table[id]
}

// GenreNames maps ids to names, skipping unknown ids.
func GenreNames(ids []int, mediaType model.MediaType) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := GenreName(id, mediaType); name != "" {
			names = append(names, name)
		}
	}
	return names
}

const imageBaseURL = "https://image.tmdb.org/t/p/"

// ImageURL builds a CDN url for an image path. size defaults to w500.
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return fmt.Sprintf("%s%s%s", imageBaseURL, size, path)
}
