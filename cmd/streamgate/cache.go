package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the resolution cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache counters",
	Args:  cobra.NoArgs,
	RunE:  runCacheStatsCmd,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached resolutions",
	Long: `Clear cached resolutions, all of them or one site's.

Examples:
  streamgate cache clear
  streamgate cache clear --site aniworld`,
	Args: cobra.NoArgs,
	RunE: runCacheClearCmd,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().String("site", "", "Only clear entries for this site tag")
}

func runCacheStatsCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	stats, err := client.CacheStats()
	if err != nil {
		return fmt.Errorf("cache stats failed: %w", err)
	}

	if jsonOutput {
		printJSON(stats)
		return nil
	}

	fmt.Printf("Entries:      %d\n", stats.Entries)
	fmt.Printf("Hits:         %d\n", stats.Hits)
	fmt.Printf("Misses:       %d\n", stats.Misses)
	fmt.Printf("Resolutions:  %d (%d failed)\n", stats.Resolutions, stats.Failures)
	return nil
}

func runCacheClearCmd(cmd *cobra.Command, args []string) error {
	site, _ := cmd.Flags().GetString("site")

	client := NewClient(serverURL)
	resp, err := client.CacheClear(site)
	if err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if resp.Site != "" {
		fmt.Printf("Cleared %d entries for site %s\n", resp.Cleared, resp.Site)
	} else {
		fmt.Printf("Cleared %d entries\n", resp.Cleared)
	}
	return nil
}
