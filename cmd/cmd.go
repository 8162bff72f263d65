// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles initial configuration and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "app-key",
				Usage: "Catalog application key to store in the config file",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles the local account session.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the local account session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the current session state",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AuthWhoami,
			},
			{
				Name:  "check-email",
				Usage: "Check whether an email is registered and enabled",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Action: r.AuthCheckEmail,
			},
		},
	}
}

// connectCommand runs the catalog authorization handshake.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Link a catalog account via the approval handshake",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for approval",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "Personal catalog API key to store before linking",
			},
		},
		Action: r.Connect,
	}
}

// catalogCommand handles catalog browsing operations.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse the movie catalog",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search movies, or list popular titles when the query is empty",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Result page", Value: 1},
					&cli.IntFlag{Name: "genre", Usage: "Filter by genre id"},
					&cli.IntFlag{Name: "year", Usage: "Filter by release year"},
					&cli.StringFlag{Name: "sort", Usage: "Sort criterion for discovery listings"},
					&cli.BoolFlag{Name: "adult", Usage: "Include adult titles"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.MoviesSearch,
			},
			{
				Name:    "nowplaying",
				Aliases: []string{"billboard"},
				Usage:   "Show the now-playing billboard",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "pages", Usage: "Number of billboard pages to fetch", Value: 1},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.MoviesNowPlaying,
			},
			{
				Name:  "detail",
				Usage: "Show a movie's full record and cast",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.MoviesDetail,
			},
			{
				Name:   "genres",
				Usage:  "List catalog genres",
				Action: r.MoviesGenres,
			},
		},
	}
}

// favoritesCommand manages the connected account's favorite set.
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite movies",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorite movies",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Result page", Value: 1},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.StringFlag{Name: "export", Usage: "Export format: csv, md, or txt"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Export base path"},
				},
				Action: r.FavoritesList,
			},
			{
				Name:  "toggle",
				Usage: "Flip a movie's favorite state",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Action: r.FavoritesToggle,
			},
		},
	}
}

// usersCommand handles admin-only account management on the backend.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Administer backend accounts (admin only)",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List registered accounts",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.UsersList,
			},
			{
				Name:  "create",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Required: true, Usage: "Account password"},
					&cli.StringFlag{Name: "role", Value: "user", Usage: "Account role (user or admin)"},
				},
				Action: r.UsersCreate,
			},
			{
				Name:  "update",
				Usage: "Update an account",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "New email"},
					&cli.StringFlag{Name: "role", Usage: "New role"},
				},
				Action: r.UsersUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete an account",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Action: r.UsersDelete,
			},
			{
				Name:  "enable",
				Usage: "Enable an account",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Action: r.UsersEnable,
			},
			{
				Name:  "disable",
				Usage: "Disable an account",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Action: r.UsersDisable,
			},
		},
	}
}

// historyCommand inspects locally recorded searches.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded searches",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show recent searches",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum entries to show", Value: 20},
				},
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Delete all recorded searches",
				Action: r.HistoryClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Action:  r.Browse,
	}
}
