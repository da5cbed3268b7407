package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"streamgate/internal/catalog"
	"streamgate/internal/config"
	"streamgate/internal/generator"
	"streamgate/internal/migrations"
)

var generateCmd = &cobra.Command{
	Use:   "generate [site...]",
	Short: "Generate the placeholder library tree",
	Long: `Generate .strm placeholder trees for the configured sites, straight
from their data files. Runs locally; the server does not need to be up.

Series whose stream sets are unchanged since the last run are skipped.
Use --force to regenerate everything.

Examples:
  streamgate generate
  streamgate generate aniworld
  streamgate generate --force --config /etc/streamgate/config.toml`,
	RunE: runGenerateCmd,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("config", "config.toml", "Path to config file")
	generateCmd.Flags().Bool("force", false, "Regenerate even unchanged series")
	generateCmd.Flags().String("output", "", "Override generator.output_root")
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	outputOverride, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		return &config.ConfigError{Path: configPath, Issues: issues}
	}

	outputRoot := cfg.Generator.OutputRoot
	if outputOverride != "" {
		outputRoot = outputOverride
	}
	if outputRoot == "" {
		return fmt.Errorf("generator.output_root is not configured (or pass --output)")
	}
	if cfg.Generator.RedirectBase == "" {
		return fmt.Errorf("generator.redirect_base is not configured")
	}

	sites, err := selectSites(cfg, args)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Generator.ProgressDB), 0755); err != nil {
		return fmt.Errorf("create progress db dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Generator.ProgressDB)
	if err != nil {
		return fmt.Errorf("open progress db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.ProgressSQL); err != nil {
		return fmt.Errorf("migrate progress db: %w", err)
	}
	progress := generator.NewProgressStore(db)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	gen := generator.New(progress, generator.Options{
		OutputRoot:   outputRoot,
		RedirectBase: cfg.Generator.RedirectBase,
		Workers:      cfg.Generator.Workers,
		Logger:       logger,
	})

	reports := make(map[string]generator.Report, len(sites))
	for _, site := range sites {
		cat, err := catalog.Load(site.DataFile, catalog.LoadOptions{
			Tag:             site.Tag,
			LanguageAliases: site.LanguageKeys,
		})
		if err != nil {
			return fmt.Errorf("load site %s: %w", site.Tag, err)
		}

		if force {
			if _, err := progress.Clear(cmd.Context(), site.Tag); err != nil {
				return fmt.Errorf("clear progress for %s: %w", site.Tag, err)
			}
		}

		report, err := gen.Run(cmd.Context(), cat)
		if err != nil {
			return fmt.Errorf("generate %s: %w", site.Tag, err)
		}
		reports[site.Tag] = report
	}

	if jsonOutput {
		printJSON(reports)
		return nil
	}

	for _, site := range sites {
		r := reports[site.Tag]
		fmt.Printf("%s: %d series written, %d skipped, %d failed, %d files\n",
			site.Tag, r.SeriesWritten, r.SeriesSkipped, r.SeriesFailed, r.FilesWritten)
	}
	return nil
}

// selectSites narrows the configured sites to the requested tags, or
// returns all of them when none are named.
func selectSites(cfg *config.Config, tags []string) ([]config.SiteConfig, error) {
	if len(tags) == 0 {
		return cfg.Sites, nil
	}
	out := make([]config.SiteConfig, 0, len(tags))
	for _, tag := range tags {
		site, ok := cfg.Site(tag)
		if !ok {
			return nil, fmt.Errorf("no configured site with tag %q", tag)
		}
		out = append(out, site)
	}
	return out, nil
}
