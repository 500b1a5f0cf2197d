// Package tui is the interactive terminal chat for a running backend.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"

	"solendir/internal/notion"
)

// Backend is the subset of the backend client the chat needs.
type Backend interface {
	Chat(ctx context.Context, message string) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	Pages(ctx context.Context, cursor string) (json.RawMessage, error)
}

type Options struct {
	BackendURL string
	// Markdown enables glamour rendering of assistant answers.
	Markdown bool
}

type backendMsg struct {
	output    string
	markdown  bool
	err       error
	quit      bool
	clear     bool
	connected *bool
}

type chatModel struct {
	ctx       context.Context
	backend   Backend
	renderer  *glamour.TermRenderer
	viewport  viewport.Model
	textInput textinput.Model
	spinner   spinner.Model
	messages  []string
	banner    []string
	// connected is nil until this session sets or clears the token; the
	// backend may already hold one the chat does not know about.
	connected *bool
	isLoading bool
	ready     bool
	width     int
	height    int
}

func newChatModel(ctx context.Context, backend Backend, opts Options) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask anything, or type /help..."
	ti.Focus()
	ti.CharLimit = 4000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ClrBrand)

	var renderer *glamour.TermRenderer
	if opts.Markdown {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	}

	banner := []string{
		Brand.Render("solendir chat") + " " + Muted.Render("connected to "+opts.BackendURL),
		Dim("Use /token <token> to connect Notion, /help for commands."),
	}
	return chatModel{
		ctx:       ctx,
		backend:   backend,
		renderer:  renderer,
		textInput: ti,
		spinner:   s,
		messages:  append([]string(nil), banner...),
		banner:    banner,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.textInput.SetValue("")

			cmd, err := ParseCommand(input)
			if err != nil {
				m.appendMessage(Errorf("%v", err))
				return m, nil
			}
			if cmd.Kind == CmdToken {
				m.appendMessage(Prompt("you") + "/token " + maskToken(cmd.Arg))
			} else {
				m.appendMessage(Prompt("you") + input)
			}
			m.isLoading = true
			return m, tea.Batch(m.runCommand(cmd), m.spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.applyWindowSize(msg.Width, msg.Height)

	case backendMsg:
		m.isLoading = false
		if msg.quit {
			return m, tea.Quit
		}
		if msg.connected != nil {
			m.connected = msg.connected
		}
		if msg.clear {
			m.messages = append([]string(nil), m.banner...)
			m.refresh()
			return m, nil
		}
		switch {
		case msg.err != nil:
			m.appendMessage(Errorf("%v", msg.err))
		case msg.markdown:
			m.appendMessage(Prompt("solendir") + "\n" + m.renderMarkdown(msg.output))
		case msg.output != "":
			m.appendMessage(msg.output)
		}
		return m, nil
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m chatModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.isLoading {
		b.WriteString(m.spinner.View() + " ")
	} else {
		b.WriteString(Prompt("you"))
	}
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	status := Dim("notion: unknown")
	if m.connected != nil {
		status = Dim("notion: not connected")
		if *m.connected {
			status = Green.Render("notion: connected")
		}
	}
	b.WriteString(status + Dim("  ·  /help"))
	return b.String()
}

func (m *chatModel) appendMessage(line string) {
	m.messages = append(m.messages, line)
	m.refresh()
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.messages, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *chatModel) applyWindowSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height
	m.textInput.Width = maxInt(width-16, 1)

	vpWidth := maxInt(width-2, 1)
	vpHeight := maxInt(height-2, 1) // input row + status row
	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
		m.refresh()
		return
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
}

func (m chatModel) renderMarkdown(content string) string {
	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}
	return content
}

func (m chatModel) runCommand(cmd Command) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		return execute(ctx, backend, cmd)
	}
}

func execute(ctx context.Context, backend Backend, cmd Command) backendMsg {
	switch cmd.Kind {
	case CmdQuit:
		return backendMsg{quit: true}
	case CmdClear:
		return backendMsg{clear: true}
	case CmdHelp:
		return backendMsg{output: formatHelp()}
	case CmdToken:
		if err := backend.SetToken(ctx, cmd.Arg); err != nil {
			return backendMsg{err: err}
		}
		connected := true
		return backendMsg{output: Green.Render("Notion token saved."), connected: &connected}
	case CmdDisconnect:
		if err := backend.ClearToken(ctx); err != nil {
			return backendMsg{err: err}
		}
		connected := false
		return backendMsg{output: Dim("Notion disconnected."), connected: &connected}
	case CmdPages:
		raw, err := backend.Pages(ctx, cmd.Arg)
		if err != nil {
			return backendMsg{err: err}
		}
		return backendMsg{output: renderPages(raw)}
	default:
		answer, err := backend.Chat(ctx, cmd.Arg)
		if err != nil {
			return backendMsg{err: err}
		}
		return backendMsg{output: answer, markdown: true}
	}
}

// renderPages lists the recognised items of a raw search body, followed by
// the cursor to pass to /pages for the next batch.
func renderPages(raw json.RawMessage) string {
	items := notion.ExtractItems(raw)
	if len(items) == 0 {
		return Dim("(no pages or databases shared with this integration)")
	}
	var b strings.Builder
	for i, line := range notion.Summaries(items) {
		fmt.Fprintf(&b, "%s %s\n", Brand.Render(fmt.Sprintf("%d)", i+1)), Cyan.Render(line))
	}
	if gjson.GetBytes(raw, "has_more").Bool() {
		if next := gjson.GetBytes(raw, "next_cursor").String(); next != "" {
			b.WriteString(Dim("more: /pages " + next))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run starts the interactive chat and blocks until the user quits.
func Run(ctx context.Context, backend Backend, opts Options) error {
	p := tea.NewProgram(newChatModel(ctx, backend, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
