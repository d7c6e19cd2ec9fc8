package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/services"
	"github.com/desertthunder/playlistdl/internal/shared"
	"golang.org/x/time/rate"
)

// MatchFinder locates the top video for a catalog item.
type MatchFinder struct {
	searcher services.Searcher
	limiter  *rate.Limiter
}

// NewMatchFinder creates a finder over searcher. A positive perSecond caps the search rate.
func NewMatchFinder(searcher services.Searcher, perSecond float64) *MatchFinder {
	m := &MatchFinder{searcher: searcher}
	if perSecond > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return m
}

// FindMatch searches for "title contributor" and returns the first candidate verbatim,
// or [models.NotFound] when the search returned nothing.
func (m *MatchFinder) FindMatch(ctx context.Context, title, contributor string) (models.MatchResult, error) {
	if m.searcher == nil {
		return models.MatchResult{}, fmt.Errorf("%w: no search service configured", shared.ErrServiceUnavailable)
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return models.MatchResult{}, err
		}
	}

	query := models.CatalogItem{Title: title, Contributor: contributor}.Query()
	results, err := m.searcher.Search(ctx, query, 1)
	if err != nil {
		return models.MatchResult{}, err
	}

	if len(results) == 0 {
		return models.NotFound(), nil
	}
	return models.Located(results[0].Address), nil
}
