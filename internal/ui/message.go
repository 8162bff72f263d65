package ui

import (
	"github.com/avalverde/butaca/internal/models"
)

type billboardMsg struct {
	movies []models.Movie
	err    error
}

type searchResultsMsg struct {
	query string
	page  *models.MoviePage
	err   error
}

type detailMsg struct {
	detail  *models.MovieDetail
	credits *models.Credits
	err     error
}

type favoritesMsg struct {
	page *models.MoviePage
	err  error
}

type toggledMsg struct {
	movieID  int
	favorite bool
	err      error
}
