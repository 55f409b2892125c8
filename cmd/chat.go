package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ragify/internal/llm"
	"ragify/internal/rag"
)

const maxHistory = 20

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the indexed documentation in a conversation",
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

		if idx.Stats(ctx).TotalDocuments == 0 {
			fmt.Println("The index is empty. Run 'ragify load' first.")
		}

		composer := rag.NewComposer(idx, newChatClient(cfg))

		var (
			history     []llm.Message
			lastSources []rag.Source
		)
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("ragify chat (type /help for commands, /exit to quit)")
		fmt.Println()

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}

			switch question {
			case "/exit", "/quit":
				fmt.Println("Goodbye.")
				return nil
			case "/clear":
				history = nil
				lastSources = nil
				fmt.Println("Conversation cleared.")
				continue
			case "/sources":
				if len(lastSources) == 0 {
					fmt.Println("No sources yet.")
				}
				printSources(lastSources)
				continue
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /sources - show sources for the last answer")
				fmt.Println("  /clear   - clear conversation history")
				fmt.Println("  /exit    - quit chat")
				fmt.Println("  /help    - show this help")
				continue
			}

			fmt.Println("[Searching...]")

			answer := composer.Answer(ctx, question, history)
			lastSources = answer.Sources

			fmt.Println()
			fmt.Println(answer.Response)
			fmt.Println()

			history = append(history,
				llm.Message{Role: llm.RoleUser, Content: question},
				llm.Message{Role: llm.RoleAssistant, Content: answer.Response},
			)
			if len(history) > maxHistory {
				history = history[len(history)-maxHistory:]
			}
		}

		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
