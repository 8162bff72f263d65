package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/avalverde/butaca/internal/catalog"
	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/urfave/cli/v3"
)

// MoviesSearch searches the catalog, falling back to the discovery listing
// when the query is empty. Non-empty searches are recorded locally.
func (r *Runner) MoviesSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	page := cmd.Int("page")
	filters := catalog.Filters{
		GenreID:      cmd.Int("genre"),
		Year:         cmd.Int("year"),
		IncludeAdult: cmd.Bool("adult"),
		SortBy:       cmd.String("sort"),
	}

	result, err := r.browse.Search(ctx, query, page, filters)
	if err != nil {
		return err
	}

	if strings.TrimSpace(query) != "" {
		if err := r.history.Record(shared.GenerateID(), query, result.TotalResults); err != nil {
			r.logger.Warn("failed to record search", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	if len(result.Results) == 0 {
		return r.writePlain("No results\n")
	}

	r.writePlain("Page %d of %d (%d results):\n\n", result.Page, result.TotalPages, result.TotalResults)
	r.printMovies(result.Results)
	return nil
}

// MoviesNowPlaying shows the billboard, fetching as many pages as requested.
func (r *Runner) MoviesNowPlaying(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	pages := cmd.Int("pages")
	if pages < 1 {
		pages = 1
	}

	r.browse.ResetBillboard()

	var movies []models.Movie
	for i := 0; i < pages; i++ {
		batch, err := r.browse.NowPlaying(ctx)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		movies = append(movies, batch...)
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, true)
	}

	if len(movies) == 0 {
		return r.writePlain("Nothing playing\n")
	}

	r.writePlain("Now playing (%d titles):\n\n", len(movies))
	r.printMovies(movies)
	return nil
}

// MoviesDetail shows a movie's full record and its top-billed cast.
func (r *Runner) MoviesDetail(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	id := cmd.IntArg("id")
	if id == 0 {
		return fmt.Errorf("%w: movie id argument is required", shared.ErrMissingArgument)
	}

	detail, err := r.browse.Detail(ctx, id)
	if err != nil {
		return err
	}
	credits, err := r.browse.MovieCredits(ctx, id)
	if err != nil {
		credits = &models.Credits{ID: id}
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			*models.MovieDetail
			Cast []models.CastMember `json:"cast"`
		}{detail, credits.Cast}, cmd.Bool("pretty"))
	}

	r.writePlain("%s", detail.Title)
	if year := detail.Year(); year != "" {
		r.writePlain(" (%s)", year)
	}
	r.writePlain("\n")
	if detail.Tagline != "" {
		r.writePlain("%s\n", detail.Tagline)
	}
	r.writePlain("Rating: %.1f/10\n", detail.VoteAverage)
	if genres := detail.GenreNames(); genres != "" {
		r.writePlain("Genres: %s\n", genres)
	}
	if detail.Runtime > 0 {
		r.writePlain("Runtime: %d min\n", detail.Runtime)
	}
	if detail.Overview != "" {
		r.writePlain("\n%s\n", detail.Overview)
	}
	if poster := models.PosterURL(r.config.Catalog.ImageURL, detail.PosterPath, ""); poster != "" {
		r.writePlain("\nPoster: %s\n", poster)
	}

	if len(credits.Cast) > 0 {
		r.writePlain("\nCast:\n")
		limit := len(credits.Cast)
		if limit > 10 {
			limit = 10
		}
		for _, member := range credits.Cast[:limit] {
			r.writePlain("  %s as %s\n", member.Name, member.Character)
		}
	}
	return nil
}

// MoviesGenres lists the catalog's genre index.
func (r *Runner) MoviesGenres(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	genres := r.browse.Genres(ctx)
	if len(genres) == 0 {
		return r.writePlain("No genres available\n")
	}

	for _, genre := range genres {
		r.writePlain("%d\t%s\n", genre.ID, genre.Name)
	}
	return nil
}

func (r *Runner) printMovies(movies []models.Movie) {
	for i, movie := range movies {
		marker := " "
		if r.favorites.IsFavorite(movie.ID) {
			marker = "★"
		}
		r.writePlain("%d. %s %s", i+1, marker, movie.Title)
		if year := movie.Year(); year != "" {
			r.writePlain(" (%s)", year)
		}
		r.writePlain("\n   ID: %d  Rating: %.1f/10\n", movie.ID, movie.VoteAverage)
	}
}
