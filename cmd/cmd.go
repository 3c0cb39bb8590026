// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   configPath,
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func kindFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Content kind (movie or tv)",
		Value:   value,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
					&cli.StringFlag{Name: "confirm", Usage: "Repeat the password", Required: true},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Sign out everywhere",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// contentCommand handles catalog lookups
func contentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "content",
		Aliases: []string{"c"},
		Usage:   "Browse the movie & TV catalog",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a title's detail page",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ContentShow,
			},
			{
				Name:   "trending",
				Usage:  "List this week's trending titles",
				Flags:  []cli.Flag{kindFlag("movie"), jsonFlag()},
				Action: r.ContentTrending,
			},
			{
				Name:  "search",
				Usage: "Search movies and TV shows",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ContentSearch,
			},
			{
				Name:   "genres",
				Usage:  "List genres",
				Flags:  []cli.Flag{kindFlag("movie")},
				Action: r.ContentGenres,
			},
		},
	}
}

// watchlistCommand handles the signed-in user's watchlist
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watchlist",
		Aliases: []string{"wl"},
		Usage:   "Manage your watchlist",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved titles",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.IntFlag{Name: "workers", Usage: "Concurrent lookups", Value: 4},
				},
				Action: r.WatchlistList,
			},
			{
				Name:  "add",
				Usage: "Add a title by id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.WatchlistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a title by id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.WatchlistRemove,
			},
			{
				Name:  "export",
				Usage: "Export the watchlist to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, markdown or txt", Value: "markdown"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
					&cli.BoolFlag{Name: "posters", Usage: "Embed poster images (markdown only)"},
				},
				Action: r.WatchlistExport,
			},
		},
	}
}

// profileCommand handles profile settings
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:  "update",
				Usage: "Change username or avatar",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "New username"},
					&cli.StringFlag{Name: "avatar", Aliases: []string{"a"}, Usage: "New avatar"},
				},
				Action: r.ProfileUpdate,
			},
			{
				Name:  "onboarding",
				Usage: "Choose an avatar and favourite genres",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "avatar", Aliases: []string{"a"}, Usage: "Avatar name", Required: true},
					&cli.StringSliceFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre id (repeatable)"},
				},
				Action: r.ProfileOnboarding,
			},
		},
	}
}

// watchCommand serves the player page for a title and opens it.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Play a title in the browser",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "kind"},
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-browser", Usage: "Print the player URL instead of opening it"},
		},
		Action: r.Watch,
	}
}

// historyCommand handles locally recorded watch history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Titles you have played",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recently played titles",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum entries", Value: 20},
					jsonFlag(),
				},
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Delete your watch history",
				Action: r.HistoryClear,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output compact JSON"},
					&cli.BoolFlag{Name: "anon", Usage: "Send only the anon key, not the session token"},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send", Required: true},
				},
				Action: r.APIPost,
			},
			{
				Name:   "health",
				Usage:  "Check that the backend is reachable",
				Action: r.APIHealth,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}
