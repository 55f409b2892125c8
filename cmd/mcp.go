package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"ragify/internal/config"
	"ragify/internal/index"
	"ragify/internal/rag"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing documentation search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	idx, err := openIndex(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer idx.Close()

	composer := rag.NewComposer(idx, newChatClient(cfg))
	return mcpserver.ServeStdio(newMCPServer(idx, composer, cfg.Corpus))
}

func newMCPServer(idx *index.Indexer, composer *rag.Composer, corpus config.Corpus) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("ragify", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchDocsTool(), makeSearchHandler(idx))
	s.AddTool(askDocsTool(), makeAskHandler(composer))
	s.AddTool(indexStatsTool(), makeStatsHandler(idx))
	s.AddTool(listCorpusTool(), makeListCorpusHandler(corpus))

	return s
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchDocsTool() mcp.Tool {
	return mcp.NewTool("search_docs",
		mcp.WithDescription("Semantically search the indexed API documentation. Returns at most one chunk per page, most similar first."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of pages to return (default 5)"),
		),
	)
}

func askDocsTool() mcp.Tool {
	return mcp.NewTool("ask_docs",
		mcp.WithDescription("Answer a question from the indexed API documentation using a language model. Returns the answer and its sources."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(true),
			DestructiveHint: mcp.ToBoolPtr(false),
			IdempotentHint:  mcp.ToBoolPtr(false),
			OpenWorldHint:   mcp.ToBoolPtr(true),
		}),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)
}

func indexStatsTool() mcp.Tool {
	return mcp.NewTool("index_stats",
		mcp.WithDescription("Report how many chunks are indexed and whether the index is persisted or in memory."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func listCorpusTool() mcp.Tool {
	return mcp.NewTool("list_corpus",
		mcp.WithDescription("List the configured documentation providers and their URLs."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("provider",
			mcp.Description("Optional provider filter (e.g. 'anthropic')."),
		),
	)
}

// --- Handler factories ---

func makeSearchHandler(idx *index.Indexer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", 5)
		if k <= 0 {
			k = 5
		}

		results, err := idx.TrySearch(ctx, query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeAskHandler(composer *rag.Composer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		answer := composer.Answer(ctx, question, nil)

		var sb strings.Builder
		sb.WriteString(answer.Response)
		if len(answer.Sources) > 0 {
			sb.WriteString("\n\n## Sources\n\n")
			for i, s := range answer.Sources {
				fmt.Fprintf(&sb, "%d. [%s](%s) (%s, similarity %.3f)\n", i+1, s.Title, s.URL, s.Source, s.Similarity)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeStatsHandler(idx *index.Indexer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s := idx.Stats(ctx)
		return mcp.NewToolResultText(fmt.Sprintf("**Records:** %d  \n**Backend:** %s  \n**Embedding model:** %s",
			s.TotalDocuments, s.Backend, s.Model)), nil
	}
}

func makeListCorpusHandler(corpus config.Corpus) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := strings.ToLower(req.GetString("provider", ""))

		var sb strings.Builder
		matched := 0
		for _, p := range corpus {
			if filter != "" && strings.ToLower(p.Name) != filter {
				continue
			}
			matched++
			fmt.Fprintf(&sb, "## %s (%d)\n\n", p.Name, len(p.URLs))
			for _, u := range p.URLs {
				fmt.Fprintf(&sb, "- %s\n", u)
			}
			sb.WriteString("\n")
		}
		if matched == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("provider %q not found; known providers: %s",
				filter, strings.Join(corpus.Names(), ", "))), nil
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, results []index.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d pages)\n\n", query, len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: %s\n\n", i+1, r.Metadata.Title)
		fmt.Fprintf(&sb, "**Source:** %s  \n**URL:** %s  \n**Similarity:** %.3f\n\n",
			r.Metadata.Source, r.Metadata.URL, r.Similarity)
		fmt.Fprintf(&sb, "%s\n\n", r.Content)
	}

	return sb.String()
}
