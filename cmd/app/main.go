package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notesift/internal"
	pkgconfig "github.com/starford/notesift/pkg/config"
)

// setup loads the configuration named by --config and builds the application.
// The default path may be absent; an explicitly chosen one may not.
func setup(cmd *cli.Command) (*internal.Application, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}
	if root := cmd.String("root"); root != "" {
		opts = append(opts, internal.WithRoot(root))
	}
	return internal.New(opts...)
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	return app.List(ctx, cmd.Args().First())
}

func editAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return cli.Exit("edit: a search pattern is required", 2)
	}
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	return app.Edit(ctx, cmd.Args().First())
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	return app.Search(ctx)
}

func treeAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	return app.Tree(ctx, cmd.Args().First())
}

func statsAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	return app.Stats(ctx)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := app.Serve(ctx); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	return app.ServeMCP(ctx)
}

func main() {
	cmd := &cli.Command{
		Name:                  "note",
		Usage:                 "Browse, search and edit a directory of Markdown notes",
		EnableShellCompletion: true,
		Suggest:               true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "<user config dir>/notesift/config.yaml",
				Value:       internal.DefaultConfigPath(),
				Sources:     cli.EnvVars("NOTESIFT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Notes directory (overrides vault.path)",
				Sources: cli.EnvVars("NOTESIFT_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List all notes with their category, title, tags and date",
				ArgsUsage: "[path]",
				Action:    listAction,
			},
			{
				Name:      "edit",
				Usage:     "Open every note matching a regular expression in the editor",
				ArgsUsage: "<pattern>",
				Action:    editAction,
			},
			{
				Name:   "search",
				Usage:  "Interactive search with results refreshed on every keystroke",
				Action: searchAction,
			},
			{
				Name:      "tree",
				Usage:     "Show the category tree",
				ArgsUsage: "[path]",
				Action:    treeAction,
			},
			{
				Name:    "stats",
				Aliases: []string{"statistics"},
				Usage:   "Show note counts per category and tag",
				Action:  statsAction,
			},
			{
				Name:   "serve",
				Usage:  "Serve the read-only HTTP API",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the read-only MCP tools over stdio",
				Action: mcpAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
