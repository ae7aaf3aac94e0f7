package suggest

import (
	"context"
	"testing"

	"github.com/JimJos-Calderon/app-web-mylist/internal/omdb"
)

type fakeSearcher struct {
	calls   int
	results []omdb.Suggestion
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query, kind string) ([]omdb.Suggestion, error) {
	f.calls++
	return f.results, f.err
}

func TestSuggest_ShortQueryMakesNoCalls(t *testing.T) {
	f := &fakeSearcher{}
	s := New(f)
	// "ñu" and "ét" are two runes but more than two bytes
	for _, q := range []string{"", "a", "ab", "  ab  ", "ñu", "ét"} {
		got, err := s.Suggest(context.Background(), q, "pelicula")
		if err != nil {
			t.Fatalf("Suggest(%q): %v", q, err)
		}
		if len(got) != 0 {
			t.Fatalf("Suggest(%q) = %v, want empty", q, got)
		}
	}
	if f.calls != 0 {
		t.Fatalf("expected zero upstream calls, got %d", f.calls)
	}
}

func TestSuggest_CachesByQueryAndType(t *testing.T) {
	f := &fakeSearcher{results: []omdb.Suggestion{{Title: "The Matrix", Year: "1999"}}}
	s := New(f)

	first, err := s.Suggest(context.Background(), "matrix", "pelicula")
	if err != nil || len(first) != 1 {
		t.Fatalf("first: %v %v", first, err)
	}
	second, err := s.Suggest(context.Background(), "matrix", "pelicula")
	if err != nil || len(second) != 1 {
		t.Fatalf("second: %v %v", second, err)
	}
	if f.calls != 1 {
		t.Fatalf("expected cache hit on repeat, got %d upstream calls", f.calls)
	}

	// same query, different type misses the cache
	if _, err := s.Suggest(context.Background(), "matrix", "serie"); err != nil {
		t.Fatalf("serie: %v", err)
	}
	if f.calls != 2 {
		t.Fatalf("expected a fresh call for other type, got %d", f.calls)
	}
}

func TestSuggest_CapsAtFive(t *testing.T) {
	many := make([]omdb.Suggestion, 8)
	for i := range many {
		many[i] = omdb.Suggestion{Title: "m"}
	}
	s := New(&fakeSearcher{results: many})
	got, err := s.Suggest(context.Background(), "matrix", "pelicula")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", MaxSuggestions, len(got))
	}
}

func TestSuggest_EmptyUpstreamIsNotAnError(t *testing.T) {
	f := &fakeSearcher{}
	s := New(f)
	got, err := s.Suggest(context.Background(), "zzzzzz", "serie")
	if err != nil {
		t.Fatalf("empty result should not error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestSuggest_UnknownTipo(t *testing.T) {
	s := New(&fakeSearcher{})
	if _, err := s.Suggest(context.Background(), "matrix", "documental"); err == nil {
		t.Fatal("expected error for unknown tipo")
	}
}
