package service

import (
	"context"

	"github.com/rs/zerolog"

	"agro-service/internal/model"
)

type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]model.PlaceSuggestion, error)
}

type PlaceService struct {
	searcher PlaceSearcher
	log      zerolog.Logger
}

func NewPlaceService(searcher PlaceSearcher, log zerolog.Logger) *PlaceService {
	return &PlaceService{searcher: searcher, log: log}
}

// Search never fails: an upstream error yields an empty list.
func (s *PlaceService) Search(ctx context.Context, query string) []model.PlaceSuggestion {
	places, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.log.Warn().Err(err).Str("query", query).Msg("place search failed")
		return []model.PlaceSuggestion{}
	}
	if places == nil {
		return []model.PlaceSuggestion{}
	}
	return places
}
