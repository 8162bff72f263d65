package main

import (
	"context"
	"fmt"

	"github.com/avalverde/butaca/internal/formatter"
	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/urfave/cli/v3"
)

// FavoritesList shows one page of the connected account's favorite set.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	accountID, err := r.requireAccount()
	if err != nil {
		return err
	}

	page := cmd.Int("page")
	result, err := r.favorites.Load(ctx, accountID, page)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if format := cmd.String("export"); format != "" {
		return r.exportFavorites(format, cmd.String("output"), result.Results)
	}

	if len(result.Results) == 0 {
		return r.writePlain("No favorites yet\n")
	}

	r.writePlain("Favorites (page %d of %d):\n\n", result.Page, result.TotalPages)
	r.printMovies(result.Results)
	return nil
}

// FavoritesToggle flips a movie's favorite state and reports the new one.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	accountID, err := r.requireAccount()
	if err != nil {
		return err
	}

	movieID := cmd.IntArg("id")
	if movieID == 0 {
		return fmt.Errorf("%w: movie id argument is required", shared.ErrMissingArgument)
	}

	// The first toggle needs the cached set to derive the current state.
	if _, err := r.favorites.Load(ctx, accountID, 1); err != nil {
		return err
	}

	favorite, err := r.favorites.Flip(ctx, accountID, movieID)
	if err != nil {
		return err
	}

	if favorite {
		return r.writePlain("✓ Added %d to favorites\n", movieID)
	}
	return r.writePlain("✓ Removed %d from favorites\n", movieID)
}

// exportFavorites writes the favorite set to disk in the requested format.
func (r *Runner) exportFavorites(format, output string, movies []models.Movie) error {
	const title = "Favorites"

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(title, movies, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported to %s\n", result.MoviesFile)
		r.writePlain("  Metadata: %s\n", result.MetadataFile)
		return nil
	case "md", "markdown":
		var imageURL string
		if len(movies) > 0 {
			imageURL = models.PosterURL(r.config.Catalog.ImageURL, movies[0].PosterPath, "")
		}
		result, err := formatter.WriteMarkdownExport(title, movies, output, imageURL)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported to %s\n", result.Directory)
		return nil
	case "txt", "text":
		file, err := formatter.WriteTextExport(title, movies, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported to %s\n", file)
		return nil
	default:
		return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}
