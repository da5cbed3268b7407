package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Server status and catalog summary",
	Long: `Show server status: loaded catalogs and cache counters.

Examples:
  streamgate status
  streamgate status --json`,
	Args: cobra.NoArgs,
	RunE: runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	printStatusHuman(serverURL, status)
	return nil
}

func printStatusHuman(server string, s *StatusResponse) {
	fmt.Printf("Server:     %s (%s)\n", server, s.Status)
	fmt.Printf("Version:    %s\n", s.Version)
	fmt.Println()

	fmt.Println("Catalogs")
	tags := make([]string, 0, len(s.Sites))
	for tag := range s.Sites {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		st := s.Sites[tag]
		fmt.Printf("  %-12s %d series, %d episodes (%d resolvable)\n",
			tag, st.Series, st.Episodes, st.Resolvable)
	}
	fmt.Println()

	fmt.Println("Cache")
	fmt.Printf("  Entries:      %d\n", s.Cache.Entries)
	fmt.Printf("  Hits:         %d\n", s.Cache.Hits)
	fmt.Printf("  Misses:       %d\n", s.Cache.Misses)
	fmt.Printf("  Resolutions:  %d (%d failed)\n", s.Cache.Resolutions, s.Cache.Failures)
}
