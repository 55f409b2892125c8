package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"ragify/internal/store"
)

type welcomeModel struct {
	records int
	backend store.Backend
	model   string
	ready   bool // true once the check has completed
}

// checkIndexMsg is sent after reading the index stats.
type checkIndexMsg struct {
	records int
	backend store.Backend
	model   string
}

func checkIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		s := cfg.Index.Stats(context.Background())
		return checkIndexMsg{records: s.TotalDocuments, backend: s.Backend, model: s.Model}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.records = msg.records
		m.backend = msg.backend
		m.model = msg.model
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ RAGify") + "\n"
	s += subtitleStyle.Render("  API documentation explorer powered by RAG") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	if m.records > 0 {
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready (%d chunks)", m.records)) + "\n"
	} else {
		s += warnStyle.Render("  ✗ Index is empty") + "\n"
	}
	s += dimStyle.Render(fmt.Sprintf("    %s index, embeddings: %s", m.backend, m.model)) + "\n"
	if m.backend == store.Ephemeral {
		s += warnStyle.Render("  ⚠ Index is kept in memory and will be lost on exit") + "\n"
	}

	s += "\n"
	if m.records > 0 {
		s += dimStyle.Render("  Press Enter to chat, l to load the documentation again, q to quit") + "\n"
	} else {
		s += dimStyle.Render("  Press Enter to load the documentation, q to quit") + "\n"
	}
	return s
}
