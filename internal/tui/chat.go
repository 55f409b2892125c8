package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"ragify/internal/llm"
	"ragify/internal/rag"
)

const maxHistory = 20

type chatModel struct {
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	messages    []chatMessage
	history     []llm.Message
	lastSources []rag.Source
	composer    *rag.Composer
	busy        bool
	width       int
	height      int
	initialized bool
}

type chatMessage struct {
	role    string
	content string
	sources []rag.Source
}

// answerMsg is sent when a question has been answered.
type answerMsg struct {
	answer rag.Answer
}

func newChatModel(composer *rag.Composer) chatModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "Ask a question about the API documentation..."
	ti.CharLimit = 2000
	ti.Focus()

	return chatModel{
		spinner:  sp,
		input:    ti,
		composer: composer,
	}
}

func (m *chatModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + borders/gaps (1 line).
	vpHeight := max(height-3, 5)
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render("Welcome to RAGify! Ask a question about the loaded API documentation.\n\nCommands: /help, /sources, /clear, /exit"))

	m.input.Width = width - 4

	// Create glamour renderer matched to current width.
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func askQuestion(composer *rag.Composer, question string, history []llm.Message) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{answer: composer.Answer(context.Background(), question, history)}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case answerMsg:
		m.busy = false
		m.lastSources = msg.answer.Sources
		m.messages = append(m.messages, chatMessage{
			role:    "assistant",
			content: msg.answer.Response,
			sources: msg.answer.Sources,
		})
		m.history = append(m.history, llm.Message{Role: llm.RoleAssistant, Content: msg.answer.Response})
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			// Re-render viewport so the spinner frame updates.
			m.refresh()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()

			switch question {
			case "/exit", "/quit":
				return m, tea.Quit
			case "/clear":
				m.messages = nil
				m.history = nil
				m.lastSources = nil
				m.viewport.SetContent(dimStyle.Render("Conversation cleared."))
				return m, nil
			case "/sources":
				m.messages = append(m.messages, chatMessage{role: "system", content: formatSources(m.lastSources)})
				m.refresh()
				return m, nil
			case "/help":
				helpText := "Commands:\n  /sources - show sources for the last answer\n  /clear   - clear conversation history\n  /exit    - quit\n  /help    - show this help"
				m.messages = append(m.messages, chatMessage{role: "system", content: helpText})
				m.refresh()
				return m, nil
			}

			history := append([]llm.Message(nil), m.history...)
			m.messages = append(m.messages, chatMessage{role: "user", content: question})
			m.history = append(m.history, llm.Message{Role: llm.RoleUser, Content: question})
			m.busy = true
			m.refresh()

			return m, tea.Batch(m.spinner.Tick, askQuestion(m.composer, question, history))
		}
	}

	// Update text input.
	if !m.busy {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update viewport (scrolling).
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m chatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return assistantMsgStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return assistantMsgStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func formatSources(sources []rag.Source) string {
	if len(sources) == 0 {
		return "No sources yet."
	}
	var sb strings.Builder
	sb.WriteString("Sources:")
	for i, s := range sources {
		fmt.Fprintf(&sb, "\n  %d. %s (%s) %s [%.3f]", i+1, s.Title, s.Source, s.URL, s.Similarity)
	}
	return sb.String()
}

func (m chatModel) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(userMsgStyle.Render("You: ") + msg.content + "\n\n")
		case "assistant":
			sb.WriteString(m.renderMarkdown(msg.content) + "\n")
			if len(msg.sources) > 0 {
				sb.WriteString(sourceStyle.Render(formatSources(msg.sources)) + "\n")
			}
			sb.WriteString("\n")
		case "system":
			sb.WriteString(dimStyle.Render(msg.content) + "\n\n")
		}
	}

	if m.busy {
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render("Searching documentation...") + "\n")
	}

	return sb.String()
}

func (m chatModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	if m.busy {
		statusText = "thinking..."
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" ragify chat • %s", statusText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
