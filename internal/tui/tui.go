// Package tui implements the interactive terminal interface.
package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"ragify/internal/index"
	"ragify/internal/logger"
	"ragify/internal/rag"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewLoading
	ViewChat
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r != nil && r.p != nil {
		r.p.Send(msg)
	}
}

// Config holds the collaborators built by the CLI layer.
type Config struct {
	Index    *index.Indexer
	Composer *rag.Composer
	Walker   index.Walker
	URLs     []string

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome welcomeModel
	loading loadingModel
	chat    chatModel
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewChat {
			var c tea.Cmd
			m.chat, c = m.chat.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewChat {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		keyMsg, ok := msg.(tea.KeyMsg)
		if !ok || !m.welcome.ready {
			break
		}
		switch {
		case keyMsg.Type == tea.KeyEnter && m.welcome.records > 0:
			return m, m.transitionToChat()
		case keyMsg.Type == tea.KeyEnter, keyMsg.String() == "l":
			return m, m.transitionToLoading()
		}

	case ViewLoading:
		m.loading, cmd = m.loading.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.loading.finished {
			return m, m.transitionToChat()
		}

	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToLoading() tea.Cmd {
	m.state = ViewLoading
	m.loading = newLoadingModel(len(m.config.URLs))
	return tea.Batch(m.loading.spinner.Tick, runLoad(m.config, m.welcome.records > 0))
}

func (m *Model) transitionToChat() tea.Cmd {
	m.chat = newChatModel(m.config.Composer)
	m.chat.initViewport(m.width, m.height)
	m.state = ViewChat
	return nil
}

func (m Model) View() string {
	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewLoading:
		return m.loading.View(m.width, m.height)
	case ViewChat:
		return m.chat.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program. Log output is discarded while it runs so it
// does not corrupt the screen.
func Run(cfg Config) error {
	prev := logger.SetOutput(io.Discard)
	defer logger.SetOutput(prev)

	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
