package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the most similar documentation pages for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		idx, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		query := strings.Join(args, " ")
		results, err := idx.TrySearch(ctx, query, flagK)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Printf("No results for %q. Run 'ragify load' to index the documentation.\n", query)
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. %s [%.3f]\n   %s (%s)\n", i+1, r.Metadata.Title, r.Similarity, r.Metadata.URL, r.Metadata.Source)
			fmt.Printf("   %s\n\n", snippet(r.Content, 160))
		}
		return nil
	},
}

// snippet flattens s to one line and cuts it to n characters.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func init() {
	searchCmd.Flags().IntVar(&flagK, "k", 5, "number of results")
	rootCmd.AddCommand(searchCmd)
}
