package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
)

// Service exposes the read-only catalog operations with the error policy the
// views rely on: browsing never hard-fails, it degrades to empty results.
type Service struct {
	client *Client
	logger *log.Logger

	// Billboard cursor. fetching is an exclusive in-flight flag, not a
	// counter: an overlapping call is rejected, never queued.
	mu       sync.Mutex
	page     int
	fetching bool
}

// NewService creates a [Service] with the billboard cursor at page 1.
func NewService(client *Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{client: client, logger: logger, page: 1}
}

// Search runs a text search when query is non-empty, otherwise a filtered
// discovery listing sorted by the requested criterion (popularity descending
// by default). Transport errors degrade to an empty page; an empty result
// set is success.
func (s *Service) Search(ctx context.Context, query string, page int, filters Filters) (*models.MoviePage, error) {
	if page < 1 {
		page = 1
	}

	var (
		result *models.MoviePage
		err    error
	)
	if strings.TrimSpace(query) != "" {
		result, err = s.client.SearchMovies(ctx, query, page)
	} else {
		result, err = s.client.DiscoverMovies(ctx, page, filters)
	}
	if err != nil {
		s.logger.Warn("search failed, returning empty page", "query", query, "page", page, "error", err)
		return emptyPage(page), nil
	}
	if result.Results == nil {
		result.Results = []models.Movie{}
	}
	return result, nil
}

// NowPlaying fetches the next billboard page. The cursor starts at 1 and
// advances only after a successful fetch. A call made while a fetch is in
// flight returns empty immediately.
func (s *Service) NowPlaying(ctx context.Context) ([]models.Movie, error) {
	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		s.logger.Debug("billboard fetch already in flight, rejecting")
		return []models.Movie{}, nil
	}
	s.fetching = true
	page := s.page
	s.mu.Unlock()

	result, err := s.client.NowPlaying(ctx, page)

	s.mu.Lock()
	s.fetching = false
	if err == nil {
		s.page++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("billboard fetch failed", "page", page, "error", err)
		return []models.Movie{}, nil
	}
	return result.Results, nil
}

// ResetBillboard rewinds the cursor to page 1, e.g. when the listing view is
// re-entered.
func (s *Service) ResetBillboard() {
	s.mu.Lock()
	s.page = 1
	s.fetching = false
	s.mu.Unlock()
}

// Detail fetches a movie's full record. Any failure resolves to not-found so
// the caller can render that state instead of crashing.
func (s *Service) Detail(ctx context.Context, id int) (*models.MovieDetail, error) {
	detail, err := s.client.MovieDetail(ctx, id)
	if err != nil {
		s.logger.Warn("detail lookup failed", "movie", id, "error", err)
		return nil, shared.ErrNotFound
	}
	return detail, nil
}

// MovieCredits fetches a movie's cast, resolving failures to not-found.
func (s *Service) MovieCredits(ctx context.Context, id int) (*models.Credits, error) {
	credits, err := s.client.MovieCredits(ctx, id)
	if err != nil {
		s.logger.Warn("credits lookup failed", "movie", id, "error", err)
		return nil, shared.ErrNotFound
	}
	return credits, nil
}

// Genres returns the catalog's genre index, empty on failure.
func (s *Service) Genres(ctx context.Context) []models.Genre {
	genres, err := s.client.GenreList(ctx)
	if err != nil {
		s.logger.Warn("genre list failed", "error", err)
		return []models.Genre{}
	}
	return genres
}

func emptyPage(page int) *models.MoviePage {
	return &models.MoviePage{Page: page, Results: []models.Movie{}}
}
