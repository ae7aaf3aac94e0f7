// Package suggest implements the search-box autocomplete: a minimum
// query length before any upstream call, and a time-boxed cache keyed
// by query+type so repeated prefixes don't hit the metadata API.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JimJos-Calderon/app-web-mylist/internal/cache"
	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
	"github.com/JimJos-Calderon/app-web-mylist/internal/omdb"
)

const (
	MinQueryLen    = 3
	MaxSuggestions = 5
	cacheTTL       = 60 * time.Minute
)

// Searcher is the slice of the OMDb client this service needs.
type Searcher interface {
	Search(ctx context.Context, query, kind string) ([]omdb.Suggestion, error)
}

type Service struct {
	source Searcher
	cache  *cache.TTLCache[string, []omdb.Suggestion]
}

func New(source Searcher) *Service {
	return &Service{source: source, cache: cache.NewTTL[string, []omdb.Suggestion](cacheTTL)}
}

// Suggest returns up to MaxSuggestions matches for the query, or an
// empty slice for queries under the minimum length.
func (s *Service) Suggest(ctx context.Context, query, tipo string) ([]omdb.Suggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLen {
		return []omdb.Suggestion{}, nil
	}
	kind, err := kindFor(tipo)
	if err != nil {
		return nil, err
	}

	key := query + "-" + tipo
	if hit, ok := s.cache.Get(key); ok {
		return hit, nil
	}

	results, err := s.source.Search(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	if len(results) > MaxSuggestions {
		results = results[:MaxSuggestions]
	}
	if results == nil {
		results = []omdb.Suggestion{}
	}
	s.cache.Set(key, results)
	return results, nil
}

func kindFor(tipo string) (string, error) {
	switch tipo {
	case models.TipoPelicula:
		return omdb.KindMovie, nil
	case models.TipoSerie:
		return omdb.KindSeries, nil
	default:
		return "", fmt.Errorf("unknown tipo %q", tipo)
	}
}
