package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ragify/internal/fetcher"
	"ragify/internal/index"
)

type loadingModel struct {
	spinner spinner.Model
	current string
	done    int
	total   int
	failed  int
	log     []string
	// finished is set once LoadAll returns.
	finished bool
	stats    *index.LoadStats
	err      error
}

func newLoadingModel(total int) loadingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return loadingModel{
		spinner: sp,
		total:   total,
		current: "Fetching documentation...",
	}
}

// loadDoneMsg is sent when loading completes.
type loadDoneMsg struct {
	stats *index.LoadStats
	err   error
}

// loadProgressMsg is sent after each URL.
type loadProgressMsg struct {
	done   int
	total  int
	url    string
	failed string
}

// runLoad loads the corpus, clearing existing records first when reset is
// set so a reload does not duplicate them.
func runLoad(cfg Config, reset bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if reset {
			if err := cfg.Index.Reset(ctx); err != nil {
				return loadDoneMsg{err: err}
			}
		}
		stats, err := cfg.Index.LoadAll(ctx, cfg.Walker, cfg.URLs, func(done, total int, doc fetcher.RawDocument) {
			msg := loadProgressMsg{done: done, total: total, url: doc.Location()}
			if f, ok := doc.(fetcher.Failure); ok {
				msg.failed = f.Message
			}
			cfg.program.send(msg)
		})
		return loadDoneMsg{stats: stats, err: err}
	}
}

func (m loadingModel) Update(msg tea.Msg) (loadingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		m.finished = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case loadProgressMsg:
		m.done = msg.done
		m.total = msg.total
		m.current = msg.url
		line := successStyle.Render("✓ ") + msg.url
		if msg.failed != "" {
			m.failed++
			line = errorStyle.Render("✗ ") + msg.url + dimStyle.Render(" ("+msg.failed+")")
		}
		m.log = append(m.log, line)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loadingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Loading documentation") + "\n\n"

	// Keep the most recent lines that fit on screen.
	log := m.log
	if room := height - 12; room > 0 && len(log) > room {
		log = log[len(log)-room:]
	}
	for _, line := range log {
		s += "  " + line + "\n"
	}
	if len(log) > 0 {
		s += "\n"
	}

	if m.finished {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press Enter to continue to chat anyway, or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Loading complete!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Pages: %d fetched, %d failed\n", m.stats.PagesFetched, len(m.stats.Failures))
			s += fmt.Sprintf("  Chunks: %d added\n", m.stats.RecordsInserted)
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start chatting") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.current)
	if m.total > 0 {
		s += fmt.Sprintf("  %d / %d pages processed, %d failed\n", m.done, m.total, m.failed)
	}
	return s
}
