package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"cinelog/internal/model"
)

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// SearchMulti searches movies, shows and people in one call.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*model.CatalogPage, error) {
	params := pageParams(page)
	params.Set("query", query)
	params.Set("include_adult", "false")

	var out model.CatalogPage
	if err := c.get(ctx, "search_multi", "/search/multi", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trending lists trending titles. mediaType is all, movie, tv or person;
// window is day or week.
func (c *Client) Trending(ctx context.Context, mediaType, window string, page int) (*model.CatalogPage, error) {
	if mediaType == "" {
		mediaType = "all"
	}
	if window == "" {
		window = "day"
	}

	var out model.CatalogPage
	path := fmt.Sprintf("/trending/%s/%s", url.PathEscape(mediaType), url.PathEscape(window))
	if err := c.get(ctx, "trending", path, pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MovieDetails(ctx context.Context, id int64) (*model.MovieDetails, error) {
	params := url.Values{"append_to_response": {"credits,recommendations,images"}}

	var out model.MovieDetails
	if err := c.get(ctx, "movie_details", fmt.Sprintf("/movie/%d", id), params, &out); err != nil {
		return nil, err
	}
	out.MediaType = model.MediaMovie
	return &out, nil
}

func (c *Client) ShowDetails(ctx context.Context, id int64) (*model.ShowDetails, error) {
	params := url.Values{"append_to_response": {"aggregate_credits,recommendations,images"}}

	var out model.ShowDetails
	if err := c.get(ctx, "show_details", fmt.Sprintf("/tv/%d", id), params, &out); err != nil {
		return nil, err
	}
	out.MediaType = model.MediaTV
	return &out, nil
}

func (c *Client) PersonDetails(ctx context.Context, id int64) (*model.PersonDetails, error) {
	params := url.Values{"append_to_response": {"combined_credits,images"}}

	var out model.PersonDetails
	if err := c.get(ctx, "person_details", fmt.Sprintf("/person/%d", id), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DiscoverMovies passes params straight through to /discover/movie.
func (c *Client) DiscoverMovies(ctx context.Context, params url.Values) (*model.CatalogPage, error) {
	if params == nil {
		params = url.Values{}
	}

	var out model.CatalogPage
	if err := c.get(ctx, "discover_movies", "/discover/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MovieRecommendations(ctx context.Context, id int64, page int) (*model.CatalogPage, error) {
	var out model.CatalogPage
	path := fmt.Sprintf("/movie/%d/recommendations", id)
	if err := c.get(ctx, "movie_recommendations", path, pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
