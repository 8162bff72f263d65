package ui

import (
	"fmt"

	"github.com/avalverde/butaca/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.Movie] to implement [list.Item]. The favorite
// marker reflects the cached favorite set at the time the item was built;
// items are rebuilt whenever the cache version moves.
type movieItem struct {
	movie    models.Movie
	favorite bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }

func (i movieItem) Title() string {
	if i.favorite {
		return fmt.Sprintf("%s %s", i.movie.Title, styles.star.Render("★"))
	}
	return i.movie.Title
}

func (i movieItem) Description() string {
	desc := fmt.Sprintf("%.1f/10", i.movie.VoteAverage)
	if year := i.movie.Year(); year != "" {
		desc = fmt.Sprintf("%s • %s", year, desc)
	}
	return desc
}
