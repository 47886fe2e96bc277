// Package tui provides an interactive terminal playground for SQL completion.
package tui

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MirrexOne/sqlctx/internal/completion"
)

const (
	historySize = 100
	// maxRows is how many candidates the dropdown shows at once.
	maxRows = 8
)

// Model is the main TUI model.
type Model struct {
	engine     *completion.Engine
	input      textinput.Model
	result     *completion.Result
	candidates []completion.Candidate // sorted by boost
	selected   int
	quitting   bool
	width      int
	height     int
	actions    []string       // Action log for display
	history    *ActionHistory // Action history for undo
	showHelp   bool
	startTime  time.Time
}

// KeyMap defines key bindings.
type KeyMap struct {
	Accept key.Binding
	Next   key.Binding
	Prev   key.Binding
	Undo   key.Binding
	Clear  key.Binding
	Export key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Accept: key.NewBinding(
			key.WithKeys("tab", "enter"),
			key.WithHelp("tab/enter", "accept"),
		),
		Next: key.NewBinding(
			key.WithKeys("ctrl+n", "down"),
			key.WithHelp("ctrl+n/↓", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("ctrl+p", "up"),
			key.WithHelp("ctrl+p/↑", "previous"),
		),
		Undo: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "undo"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "export"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

var keys = DefaultKeyMap()

// Styles for TUI rendering.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	tableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// NewModel creates a model completing query with engine. The cursor starts
// at the end of query.
func NewModel(engine *completion.Engine, query string) Model {
	input := textinput.New()
	input.Prompt = "sql> "
	input.Placeholder = "SELECT ..."
	input.Focus()

	m := Model{
		engine:    engine,
		input:     input,
		history:   NewActionHistory(historySize),
		startTime: time.Now(),
	}
	m.setInput(query, len(query))
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Accept):
			m.accept()
			return m, nil

		case key.Matches(msg, keys.Next):
			if m.selected < len(m.candidates)-1 {
				m.selected++
			}
			return m, nil

		case key.Matches(msg, keys.Prev):
			if m.selected > 0 {
				m.selected--
			}
			return m, nil

		case key.Matches(msg, keys.Undo):
			if err := UndoLastAction(&m); err != nil {
				m.log("Undo: %v", err)
			} else {
				m.log("Undid last action")
			}
			return m, nil

		case key.Matches(msg, keys.Clear):
			if m.input.Value() != "" {
				m.history.Push(Action{
					Type:         ActionClear,
					Timestamp:    time.Now(),
					Before:       m.input.Value(),
					BeforeCursor: m.Cursor(),
				})
				m.setInput("", 0)
			}
			return m, nil

		case key.Matches(msg, keys.Export):
			filename := fmt.Sprintf("sqlctx-session-%s.json", time.Now().Format("20060102-150405"))
			if err := ExportToJSON(filename, m.buildExportResult()); err != nil {
				m.log("Export error: %v", err)
			} else {
				m.log("Exported to %s", filename)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(0, msg.Width-len(m.input.Prompt)-1)
		return m, nil
	}

	var cmd tea.Cmd
	before, cursor := m.input.Value(), m.input.Position()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before || m.input.Position() != cursor {
		m.refresh()
	}
	return m, cmd
}

// Query returns the text being edited.
func (m Model) Query() string {
	return m.input.Value()
}

// Cursor returns the cursor as a byte offset into Query.
func (m Model) Cursor() int {
	return runeOffset(m.input.Value(), m.input.Position())
}

// Selected returns the highlighted candidate.
func (m Model) Selected() (completion.Candidate, bool) {
	if m.selected >= len(m.candidates) {
		return completion.Candidate{}, false
	}
	return m.candidates[m.selected], true
}

// accept replaces the word under the cursor with the selected candidate.
func (m *Model) accept() {
	c, ok := m.Selected()
	if !ok {
		return
	}
	query := m.input.Value()
	span := m.result.Span
	after := query[:span.From] + c.Text() + query[span.To:]

	m.history.Push(Action{
		Type:         ActionAccept,
		Timestamp:    time.Now(),
		Label:        c.Label,
		Before:       query,
		BeforeCursor: m.Cursor(),
		After:        after,
	})
	m.log("Accepted %s", c.Label)
	m.setInput(after, span.From+len(c.Text()))
}

// setInput replaces the input text and moves the cursor to the byte offset
// cursor.
func (m *Model) setInput(value string, cursor int) {
	m.input.SetValue(value)
	m.input.SetCursor(utf8.RuneCountInString(value[:max(0, min(cursor, len(value)))]))
	m.refresh()
}

// refresh recomputes the candidates for the current input.
func (m *Model) refresh() {
	m.selected = 0
	m.candidates = nil
	m.result = m.engine.Complete(m.input.Value(), m.Cursor())
	if m.result == nil {
		return
	}
	m.candidates = make([]completion.Candidate, len(m.result.Candidates))
	copy(m.candidates, m.result.Candidates)
	completion.Sort(m.candidates)
}

func (m *Model) log(format string, args ...any) {
	m.actions = append(m.actions, fmt.Sprintf(format, args...))
}

// buildExportResult creates an export result from current state.
func (m Model) buildExportResult() ExportResult {
	r := ExportResult{
		Timestamp:     time.Now(),
		Query:         m.input.Value(),
		Cursor:        m.Cursor(),
		SchemaVersion: m.engine.Version(),
		Actions:       m.history.All(),
		Duration:      time.Since(m.startTime).String(),
	}
	if m.result != nil {
		r.Context = m.result.Context.Kind.String()
		r.Tables = m.result.Context.Tables
	}
	return r
}

// runeOffset returns the byte offset of the rune index pos in s.
func runeOffset(s string, pos int) int {
	offset := 0
	for i := 0; i < pos && offset < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return offset
}

// Run starts the interactive playground.
func Run(engine *completion.Engine, query string) error {
	p := tea.NewProgram(NewModel(engine, query), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
