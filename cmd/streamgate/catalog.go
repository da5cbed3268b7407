package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect loaded catalogs",
}

var catalogSeriesCmd = &cobra.Command{
	Use:   "series <site>",
	Short: "List series loaded for a site",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogSeriesCmd,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <site> <query>...",
	Short: "Fuzzy-search series titles on a site",
	Long: `Fuzzy-search series titles using Jaro-Winkler similarity, which
favors prefix matches (good for media titles).

Examples:
  streamgate catalog search aniworld "attack on titan"
  streamgate catalog search sto breaking --limit 5`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCatalogSearchCmd,
}

var catalogReloadCmd = &cobra.Command{
	Use:   "reload <site>",
	Short: "Hot-swap a site's catalog from its data file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogReloadCmd,
}

var catalogInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show stream availability for one identifier",
	Long: `Show the languages and providers recorded for one identifier.

Examples:
  streamgate catalog info "aniworld:attack-on-titan/s01e04"`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogInfoCmd,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSeriesCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogReloadCmd)
	catalogCmd.AddCommand(catalogInfoCmd)
	catalogSearchCmd.Flags().Int("limit", 10, "Maximum number of matches")
}

func runCatalogSeriesCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	list, err := client.Series(args[0])
	if err != nil {
		return fmt.Errorf("series list failed: %w", err)
	}

	if jsonOutput {
		printJSON(list)
		return nil
	}

	for _, s := range list.Series {
		fmt.Printf("%-40s %-50s %d episodes\n", s.Key, s.DisplayName, s.Episodes)
	}
	fmt.Printf("\n%d series on %s\n", list.Total, list.Site)
	return nil
}

// scoredSeries pairs a catalog entry with its similarity to the query.
type scoredSeries struct {
	SeriesEntry
	Score float64 `json:"score"`
}

// rankSeries scores series titles against the query with Jaro-Winkler
// similarity and returns the top matches, best first.
func rankSeries(query string, series []SeriesEntry, limit int) []scoredSeries {
	query = strings.ToLower(query)

	scored := make([]scoredSeries, 0, len(series))
	for _, s := range series {
		title := strings.ToLower(s.Title)
		score := float64(edlib.JaroWinklerSimilarity(query, title))
		// A query contained verbatim in the title always counts as a hit,
		// whatever the similarity of the full strings.
		if strings.Contains(title, query) && score < 0.75 {
			score = 0.75
		}
		if score < 0.5 {
			continue
		}
		scored = append(scored, scoredSeries{SeriesEntry: s, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func runCatalogSearchCmd(cmd *cobra.Command, args []string) error {
	site := args[0]
	query := strings.Join(args[1:], " ")
	limit, _ := cmd.Flags().GetInt("limit")

	client := NewClient(serverURL)
	list, err := client.Series(site)
	if err != nil {
		return fmt.Errorf("series list failed: %w", err)
	}

	scored := rankSeries(query, list.Series, limit)

	if jsonOutput {
		printJSON(scored)
		return nil
	}

	if len(scored) == 0 {
		fmt.Println("No matching series")
		return nil
	}
	for _, s := range scored {
		fmt.Printf("%.2f  %-40s %s\n", s.Score, s.Key, s.DisplayName)
	}
	return nil
}

func runCatalogReloadCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	if err := client.CatalogReload(args[0]); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	fmt.Printf("Reloaded catalog for %s\n", args[0])
	return nil
}

func runCatalogInfoCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	info, err := client.Info(args[0])
	if err != nil {
		return fmt.Errorf("info failed: %w", err)
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}

	fmt.Printf("ID:        %s\n", info.ID)
	fmt.Printf("Season:    %d\n", info.Season)
	fmt.Printf("Episode:   %d\n", info.Episode)
	fmt.Printf("Providers: %s\n", strings.Join(info.Providers, ", "))
	if info.Cached {
		fmt.Printf("Cached:    yes (%s)\n", info.CachedURL)
	} else {
		fmt.Println("Cached:    no")
	}
	fmt.Println("Languages:")
	langs := make([]string, 0, len(info.Languages))
	for lang := range info.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Printf("  %-30s %d streams\n", lang, info.Languages[lang])
	}
	return nil
}
