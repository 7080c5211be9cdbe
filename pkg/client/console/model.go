package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	roleUser  = "user"
	roleBot   = "bot"
	roleError = "error"
)

type replyMsg struct {
	content string
}

type line struct {
	role    string
	content string
}

type model struct {
	submit  func(string) bool
	botName string

	theme    theme
	input    textinput.Model
	viewport viewport.Model
	lines    []line
	width    int
	height   int
}

func newModel(submit func(string) bool, botName string) *model {
	if strings.TrimSpace(botName) == "" {
		botName = "haracho"
	}

	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "Type a message, e.g. g!ping"
	in.Focus()
	in.CharLimit = 0

	return &model{
		submit:   submit,
		botName:  botName,
		theme:    defaultTheme(),
		input:    in,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resize()
		m.refresh()
		return m, nil
	case replyMsg:
		m.lines = append(m.lines, line{role: roleBot, content: typed.content})
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			content := m.input.Value()
			if strings.TrimSpace(content) == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.lines = append(m.lines, line{role: roleUser, content: content})
			if !m.submit(content) {
				m.lines = append(m.lines, line{role: roleError, content: "bot is not accepting messages"})
			}
			m.refresh()
			return m, nil
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := m.theme.header.Render(m.botName + " console")
	hint := m.theme.hint.Render("enter: send  esc: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.theme.viewport.Render(m.viewport.View()),
		m.theme.input.Render(m.input.View()),
		hint,
	)
}

func (m *model) resize() {
	width := max(m.width-4, 20)
	height := max(m.height-8, 3)
	m.viewport.Width = width
	m.viewport.Height = height
	m.input.Width = width - 4
}

func (m *model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m *model) transcript() string {
	rendered := make([]string, 0, len(m.lines))
	for _, l := range m.lines {
		switch l.role {
		case roleUser:
			rendered = append(rendered, m.theme.userTitle.Render("you")+" "+l.content)
		case roleBot:
			rendered = append(rendered, m.theme.botTitle.Render(m.botName)+" "+m.theme.botText.Render(l.content))
		default:
			rendered = append(rendered, m.theme.errorText.Render("! "+l.content))
		}
	}
	return strings.Join(rendered, "\n")
}
