package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	var gotQuery, gotType, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("s")
		gotType = r.URL.Query().Get("type")
		gotKey = r.URL.Query().Get("apikey")
		_, _ = w.Write([]byte(`{
			"Search": [
				{"Title": "The Matrix", "Year": "1999", "imdbID": "tt0133093", "Type": "movie", "Poster": "https://img/matrix.jpg"},
				{"Title": "The Matrix Reloaded", "Year": "2003", "imdbID": "tt0234215", "Type": "movie", "Poster": "N/A"}
			],
			"totalResults": "2",
			"Response": "True"
		}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	got, err := c.Search(context.Background(), "matrix", KindMovie)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotQuery != "matrix" || gotType != "movie" || gotKey != "k" {
		t.Fatalf("request params: s=%q type=%q apikey=%q", gotQuery, gotType, gotKey)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Title != "The Matrix" || got[0].IMDBID != "tt0133093" || got[0].Poster != "https://img/matrix.jpg" {
		t.Fatalf("first suggestion: %+v", got[0])
	}
	if got[1].Poster != "" {
		t.Fatalf("N/A poster not normalized: %+v", got[1])
	}
}

func TestSearch_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	got, err := c.Search(context.Background(), "zzzzzz", KindSeries)
	if err != nil {
		t.Fatalf("not-found should not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no suggestions, got %d", len(got))
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("bad", srv.URL)
	if _, err := c.Search(context.Background(), "matrix", KindMovie); err == nil {
		t.Fatal("expected error on non-200")
	}
}

func TestByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") != "The Matrix" {
			t.Errorf("t param: %q", r.URL.Query().Get("t"))
		}
		_, _ = w.Write([]byte(`{"Title":"The Matrix","Year":"1999","Poster":"N/A","Plot":"A hacker learns the truth.","Genre":"Action, Sci-Fi","Response":"True"}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	d, err := c.ByTitle(context.Background(), "The Matrix")
	if err != nil {
		t.Fatalf("by title: %v", err)
	}
	if d == nil || d.Genre != "Action, Sci-Fi" || d.Poster != "" {
		t.Fatalf("detail: %+v", d)
	}
}

func TestByTitle_Miss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	d, err := c.ByTitle(context.Background(), "nope")
	if err != nil || d != nil {
		t.Fatalf("miss should be (nil, nil), got %+v %v", d, err)
	}
}
