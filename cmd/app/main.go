package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/inkwell/internal"
	pkgconfig "github.com/starford/inkwell/pkg/config"
)

var version = "dev"

// command adapts one of the internal entry points to a cli action.
func command(entry func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		configPath := cmd.String("config")

		cfg := internal.NewDefaultConfig()
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}

		if err := entry(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "inkwell",
		Usage:   "Content feed and social engagement engine for a blogging platform",
		Version: version,
		Action:  command(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the REST API and event stream (default)",
				Action: command(internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve read-only MCP tools over stdio",
				Action: command(internal.RunMCP),
			},
			{
				Name:   "sync",
				Usage:  "Import the content directory once and exit",
				Action: command(internal.RunSync),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
