// Package tui renders the two-pane chat interface: a users sidebar and a
// message pane with a composer, driven by the session state machine.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"letschat/internal/session"
	"letschat/internal/view"
)

const sidebarWidth = 24

type (
	// frameMsg carries one inbound transport frame into the update loop.
	frameMsg string
	// framesClosedMsg signals that the transport channel has ended.
	framesClosedMsg struct{}
)

// listenFrames waits for the next inbound frame. Re-issued after every
// frame so the session only ever mutates on the single Update path.
func listenFrames(frames <-chan string) tea.Cmd {
	return func() tea.Msg {
		text, ok := <-frames
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(text)
	}
}

// Model is the bubbletea model for the chat interface.
type Model struct {
	session *session.Session
	frames  <-chan string

	input    textinput.Model
	viewport viewport.Model
	styles   Styles

	width        int
	height       int
	ready        bool
	disconnected bool
}

// New creates the chat interface for a session and its inbound frame
// channel.
func New(s *session.Session, frames <-chan string) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Focus()

	return Model{
		session: s,
		frames:  frames,
		input:   ti,
		styles:  DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenFrames(m.frames))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			// Read the input at submit time and clear it whether or not
			// the send succeeds; send failures go to the session's error
			// handler, never to the user.
			text := m.input.Value()
			m.session.Send(text)
			m.input.Reset()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		mainWidth := m.mainWidth()
		vpHeight := msg.Height - 5
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(mainWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = mainWidth
			m.viewport.Height = vpHeight
		}
		m.input.Width = mainWidth - len(m.input.Prompt) - 1
		m.refresh()
		return m, nil

	case frameMsg:
		m.session.HandleFrame(string(msg))
		m.refresh()
		m.viewport.GotoBottom()
		return m, listenFrames(m.frames)

	case framesClosedMsg:
		m.disconnected = true
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "connecting..."
	}

	sidebar := m.renderSidebar()
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(m.headerLine()),
		m.viewport.View(),
		m.input.View(),
		m.styles.Footer.Render("enter: send · esc: quit"),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m Model) mainWidth() int {
	w := m.width - sidebarWidth - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) headerLine() string {
	if m.disconnected {
		return "Let's Chat! (disconnected)"
	}
	return "Let's Chat!"
}

// refresh re-projects the session state into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(m.styles.SidebarTitle.Render("Users"))
	b.WriteString("\n")
	for _, u := range m.session.Users() {
		style := m.styles.UserRow
		if view.IsSelf(u.Name, m.session.Identity()) {
			style = m.styles.UserRowSelf
		}
		b.WriteString(style.Render(fmt.Sprintf("● %s", u.Name)))
		b.WriteString("\n")
	}
	height := m.height - 1
	if height < 1 {
		height = 1
	}
	return m.styles.Sidebar.
		Width(sidebarWidth).
		Height(height).
		Render(b.String())
}

func (m Model) renderMessages() string {
	identity := m.session.Identity()
	users := m.session.Users()
	width := m.mainWidth()

	var b strings.Builder
	for _, msg := range m.session.Messages() {
		body := msg.Body
		if view.Classify(msg.Body) == view.BodyImage {
			body = m.styles.ImageBody.Render(fmt.Sprintf("[gif] %s", msg.Body))
		}

		sender := m.styles.SenderName.Render(msg.Sender)
		if avatar := view.AvatarFor(users, msg.Sender); avatar == "" {
			// Tolerated miss: the sender may have left the room.
			sender = m.styles.SenderName.Render(fmt.Sprintf("%s (away)", msg.Sender))
		}

		bubble := m.styles.OtherBubble
		align := lipgloss.Left
		if view.BubbleSide(msg, identity) == view.SideSelf {
			bubble = m.styles.SelfBubble
			align = lipgloss.Right
		}

		block := lipgloss.JoinVertical(lipgloss.Left, sender, bubble.Render(body))
		b.WriteString(lipgloss.PlaceHorizontal(width, align, block))
		b.WriteString("\n")
	}
	return b.String()
}
