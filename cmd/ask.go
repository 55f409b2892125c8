package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ragify/internal/rag"
)

var flagJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question from the indexed documentation",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireChat(cfg); err != nil {
			return err
		}

		idx, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		answer := rag.NewComposer(idx, newChatClient(cfg)).Answer(ctx, strings.Join(args, " "), nil)

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		}
		fmt.Println(answer.Response)
		printSources(answer.Sources)
		return nil
	},
}

func printSources(sources []rag.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for i, s := range sources {
		fmt.Printf("  %d. %s (%s) %s [%.3f]\n", i+1, s.Title, s.Source, s.URL, s.Similarity)
	}
}

func init() {
	askCmd.Flags().BoolVar(&flagJSON, "json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}
