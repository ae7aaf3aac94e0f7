// Package omdb is a thin client for the OMDb API, the metadata source
// for posters, genres and plots.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	KindMovie  = "movie"
	KindSeries = "series"
)

type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client

	// OMDb free keys allow 1000 requests/day; a small limiter keeps a
	// runaway client from burning the quota in seconds.
	limiter *rate.Limiter
}

// Suggestion is one row of an autocomplete response.
type Suggestion struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	IMDBID string `json:"imdb_id"`
	Kind   string `json:"type"`
	Poster string `json:"poster"`
}

// Detail is a full title lookup.
type Detail struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	Poster string `json:"poster"`
	Plot   string `json:"plot"`
	Genre  string `json:"genre"`
}

type omdbEntry struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
	Plot   string `json:"Plot"`
	Genre  string `json:"Genre"`
}

type omdbResponse struct {
	omdbEntry
	Search   []omdbEntry `json:"Search"`
	Response string      `json:"Response"`
	Error    string      `json:"Error"`
}

func New(apiKey, base string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Search runs a substring search. An OMDb "Movie not found!" reply is
// an empty result set, not an error.
func (c *Client) Search(ctx context.Context, query, kind string) ([]Suggestion, error) {
	res, err := c.get(ctx, url.Values{"s": {query}, "type": {kind}})
	if err != nil {
		return nil, err
	}
	if res.Response == "False" {
		return nil, nil
	}
	out := make([]Suggestion, 0, len(res.Search))
	for _, e := range res.Search {
		out = append(out, Suggestion{
			Title:  e.Title,
			Year:   e.Year,
			IMDBID: e.IMDBID,
			Kind:   e.Type,
			Poster: normalize(e.Poster),
		})
	}
	return out, nil
}

// ByTitle fetches the full record for an exact title. A miss returns
// (nil, nil).
func (c *Client) ByTitle(ctx context.Context, title string) (*Detail, error) {
	res, err := c.get(ctx, url.Values{"t": {title}})
	if err != nil {
		return nil, err
	}
	if res.Response == "False" {
		return nil, nil
	}
	return &Detail{
		Title:  res.Title,
		Year:   res.Year,
		Poster: normalize(res.Poster),
		Plot:   normalize(res.Plot),
		Genre:  normalize(res.Genre),
	}, nil
}

func (c *Client) get(ctx context.Context, q url.Values) (*omdbResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	q.Set("apikey", c.APIKey)
	u.RawQuery = q.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb status %d", res.StatusCode)
	}
	var out omdbResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OMDb uses the literal string "N/A" for absent fields.
func normalize(s string) string {
	if s == "N/A" {
		return ""
	}
	return s
}
