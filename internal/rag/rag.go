// Package rag answers questions from retrieved documentation chunks.
package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"ragify/internal/index"
	"ragify/internal/llm"
	"ragify/internal/logger"
)

// NoResultsResponse is returned when retrieval finds nothing.
const NoResultsResponse = "No relevant documentation found. Please load the documentation first."

const systemPrompt = `You are RAGify, an advanced API Documentation Explorer using retrieval-augmented generation. Help developers with clear, practical guidance.

Guidelines:
- Base answers on provided documentation
- Include code examples when available
- Be concise but comprehensive
- Focus on practical implementation
- If unsure, say so clearly`

// Retrieval and generation parameters.
const (
	SearchK      = 5
	ContextDocs  = 3
	ContextChars = 400
	HistoryTurns = 4
	Temperature  = 0.3
	MaxTokens    = 800
)

const (
	unknownSource  = "Unknown"
	similarityBase = 1000
)

// Searcher retrieves ranked, URL-deduplicated results.
type Searcher interface {
	Search(ctx context.Context, query string, k int) []index.Result
}

// Source identifies a document that informed an answer.
type Source struct {
	Source     string  `json:"source"`
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// Answer is the response to a question plus the sources used.
type Answer struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Composer ties retrieval to the language model.
type Composer struct {
	searcher Searcher
	chat     llm.ChatClient
}

// NewComposer creates a composer. chat may be nil, in which case answers
// report that the language model is not configured.
func NewComposer(s Searcher, chat llm.ChatClient) *Composer {
	return &Composer{searcher: s, chat: chat}
}

// Answer retrieves context for question and asks the language model. It
// never fails: generation errors are reported in the response text.
func (c *Composer) Answer(ctx context.Context, question string, history []llm.Message) Answer {
	results := c.searcher.Search(ctx, question, SearchK)
	if len(results) == 0 {
		return Answer{Response: NoResultsResponse, Sources: []Source{}}
	}

	return Answer{
		Response: c.generate(ctx, BuildMessages(question, BuildContext(results), history)),
		Sources:  Sources(results),
	}
}

func (c *Composer) generate(ctx context.Context, messages []llm.Message) string {
	if c.chat == nil {
		return "Language model not configured: set GROQ_API_KEY or configure llm.provider"
	}
	reply, err := c.chat.Generate(ctx, messages, llm.Options{Temperature: Temperature, MaxTokens: MaxTokens})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return fmt.Sprintf("Language model not configured: %v", err)
	case err != nil:
		logger.Error("generate response: %v", err)
		return fmt.Sprintf("Error generating response: %v", err)
	}
	return reply
}

// BuildContext formats the top results for the prompt, truncating each to
// ContextChars characters.
func BuildContext(results []index.Result) string {
	entries := make([]string, 0, ContextDocs)
	for i, r := range results[:min(len(results), ContextDocs)] {
		entries = append(entries, fmt.Sprintf("Source %d (%s):\nURL: %s\nContent: %s\n",
			i+1, sourceName(r.Metadata.Source), r.Metadata.URL, truncate(r.Content, ContextChars)))
	}
	return strings.Join(entries, "\n")
}

// BuildMessages assembles the system prompt, the trailing user/assistant
// history and the question with its documentation context.
func BuildMessages(question, docContext string, history []llm.Message) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}
	msgs = append(msgs, trimHistory(history)...)
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Question: %s\n\nDocumentation:\n%s\n\nAnswer based on the documentation:", question, docContext),
	})
	return msgs
}

// Sources lists the top results with similarity rounded to three decimals.
func Sources(results []index.Result) []Source {
	out := make([]Source, 0, ContextDocs)
	for _, r := range results[:min(len(results), ContextDocs)] {
		out = append(out, Source{
			Source:     sourceName(r.Metadata.Source),
			URL:        r.Metadata.URL,
			Title:      r.Metadata.Title,
			Similarity: math.Round(r.Similarity*similarityBase) / similarityBase,
		})
	}
	return out
}

func trimHistory(history []llm.Message) []llm.Message {
	kept := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			kept = append(kept, m)
		}
	}
	if len(kept) > HistoryTurns {
		kept = kept[len(kept)-HistoryTurns:]
	}
	return kept
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func sourceName(s string) string {
	if s == "" {
		return unknownSource
	}
	return s
}
