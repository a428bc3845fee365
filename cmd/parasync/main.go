package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/parasync/internal"
	"github.com/starford/parasync/internal/apperr"
	pkgconfig "github.com/starford/parasync/pkg/config"
)

var version = "dev"

// loadConfig reads the optional config file and applies command line
// overrides on top of it.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if dir := cmd.Args().First(); dir != "" {
		cfg.Vault.Path = dir
	}
	if cmd.IsSet("exclude-folders") {
		cfg.Vault.ExcludeFolders = cmd.StringSlice("exclude-folders")
	}
	if cmd.IsSet("exclude-files") {
		cfg.Vault.ExcludeFiles = cmd.StringSlice("exclude-files")
	}
	if cmd.IsSet("ledger") {
		cfg.Ledger.Path = cmd.String("ledger")
	}
	if cfg.Vault.Path == "" {
		return nil, errors.New("vault directory is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func options(cmd *cli.Command, cfg *internal.Config) []internal.Option {
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithDryRun(cmd.Bool("dry-run")),
		internal.WithVerbose(cmd.Bool("verbose")),
		internal.WithVersion(version),
	}
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	report, err := internal.RunSync(ctx, options(cmd, cfg)...)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	printSummary(os.Stdout, report, cmd.Bool("verbose"))
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunWatch(ctx, options(cmd, cfg)...)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunServe(ctx, options(cmd, cfg)...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, options(cmd, cfg)...)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "parasync",
		Usage:     "Normalize PARA frontmatter across a Markdown vault and file notes where they belong",
		ArgsUsage: "<vault-dir>",
		Version:   version,
		Action:    runSync,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringSliceFlag{
				Name:  "exclude-folders",
				Usage: "Folder names to skip at any depth",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-files",
				Usage: "File names to skip",
			},
			&cli.StringFlag{
				Name:    "ledger",
				Usage:   "SQLite file that records runs (empty disables)",
				Sources: cli.EnvVars("PARASYNC_LEDGER"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would change without writing",
			},
			// no "v" alias: the version flag owns it
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log every note, including skipped ones",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "watch",
				Usage:     "Sync once, then again whenever a note changes",
				ArgsUsage: "<vault-dir>",
				Action:    runWatch,
			},
			{
				Name:      "serve",
				Usage:     "Watch the vault and serve the HTTP API with live events",
				ArgsUsage: "<vault-dir>",
				Action:    runServe,
			},
			{
				Name:      "mcp",
				Usage:     "Serve preview, sync and listing tools over MCP stdio",
				ArgsUsage: "<vault-dir>",
				Action:    runMCP,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, apperr.ErrInvalidRoot) {
			fmt.Fprintf(os.Stderr, "parasync: %v\n", err)
			os.Exit(2)
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
