package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/module-loader/module"
	"github.com/wippyai/module-loader/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	locationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const consoleLines = 5

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	console  *bytes.Buffer
	entry    string
	output   string
	result   string
	rows     []moduleRow
	input    textinput.Model
	selected int
	state    modelState
	loading  bool
}

// moduleRow is a snapshot of one record, taken on the command goroutine so
// View never touches the runtime.
type moduleRow struct {
	id       string
	state    string
	filename string
	exports  string
	parent   string
	children []string
}

type modelState int

const (
	stateBrowse modelState = iota
	stateRequire
	stateShowExports
)

func newInteractiveModel(rt *runtime.Runtime, entry string, console *bytes.Buffer) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "./module or name"
	ti.Prompt = "require: "
	ti.Width = 40

	return &interactiveModel{
		rt:      rt,
		console: console,
		entry:   entry,
		input:   ti,
		state:   stateBrowse,
		loading: true,
	}
}

type loadedMsg struct {
	err    error
	rows   []moduleRow
	output string
}

type requireResultMsg struct {
	err    error
	result string
	rows   []moduleRow
	output string
}

func (m *interactiveModel) Init() tea.Cmd {
	if m.entry == "" {
		return m.refresh
	}
	return m.runMain
}

func (m *interactiveModel) runMain() tea.Msg {
	_, err := m.rt.RunMain(context.Background(), m.entry)
	return loadedMsg{err: err, rows: snapshot(m.rt), output: m.drainConsole()}
}

func (m *interactiveModel) refresh() tea.Msg {
	return loadedMsg{rows: snapshot(m.rt), output: m.drainConsole()}
}

func (m *interactiveModel) require(specifier string) tea.Cmd {
	return func() tea.Msg {
		v, err := m.rt.Require(context.Background(), specifier)
		msg := requireResultMsg{err: err, rows: snapshot(m.rt), output: m.drainConsole()}
		if err == nil {
			msg.result = m.rt.Inspect(v)
		}
		return msg
	}
}

func (m *interactiveModel) drainConsole() string {
	if m.console == nil {
		return ""
	}
	out := m.console.String()
	m.console.Reset()
	return out
}

func snapshot(rt *runtime.Runtime) []moduleRow {
	mods := rt.Modules()
	rows := make([]moduleRow, 0, len(mods))
	for _, mod := range mods {
		row := moduleRow{
			id:       string(mod.ID()),
			state:    mod.State().String(),
			filename: mod.Filename(),
			exports:  rt.Inspect(mod.Exports()),
		}
		if p := mod.Parent(); p != nil {
			row.parent = string(p.ID())
		}
		for _, c := range mod.Children() {
			row.children = append(row.children, string(c.ID()))
		}
		if mod.State() == module.StateFailed && mod.Err() != nil {
			row.exports = mod.Err().Error()
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateRequire {
			return m.updateRequire(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.rows)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateBrowse:
				if len(m.rows) > 0 {
					m.state = stateShowExports
				}
			case stateShowExports:
				m.state = stateBrowse
			}

		case "r":
			if m.state == stateBrowse && !m.loading {
				m.state = stateRequire
				m.input.SetValue("")
				m.input.Focus()
				m.result = ""
				m.err = nil
			}

		case "esc":
			m.state = stateBrowse
		}

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		m.setRows(msg.rows)
		m.appendOutput(msg.output)

	case requireResultMsg:
		m.loading = false
		m.err = msg.err
		m.result = msg.result
		m.setRows(msg.rows)
		m.appendOutput(msg.output)
		m.state = stateBrowse
	}

	return m, nil
}

func (m *interactiveModel) updateRequire(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.state = stateBrowse
		return m, nil
	case "enter":
		specifier := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if specifier == "" {
			m.state = stateBrowse
			return m, nil
		}
		m.loading = true
		return m, m.require(specifier)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) setRows(rows []moduleRow) {
	m.rows = rows
	if m.selected >= len(rows) {
		m.selected = max(len(rows)-1, 0)
	}
	if len(rows) == 0 && m.state == stateShowExports {
		m.state = stateBrowse
	}
}

func (m *interactiveModel) appendOutput(out string) {
	if out == "" {
		return
	}
	lines := strings.Split(strings.TrimRight(m.output+out, "\n"), "\n")
	if len(lines) > consoleLines {
		lines = lines[len(lines)-consoleLines:]
	}
	m.output = strings.Join(lines, "\n")
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Module Graph"))
	if m.entry != "" {
		b.WriteString(" ")
		b.WriteString(m.entry)
	}
	b.WriteString("\n\n")

	if m.loading && len(m.rows) == 0 {
		b.WriteString("Loading...\n")
		return b.String()
	}

	switch m.state {
	case stateBrowse, stateRequire:
		for i, row := range m.rows {
			line := fmt.Sprintf("%-24s %-8s %s", row.id, row.state, row.filename)
			if i == m.selected && m.state == stateBrowse {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + idStyle.Render(fmt.Sprintf("%-24s", row.id)) +
					fmt.Sprintf(" %-8s ", row.state) + locationStyle.Render(row.filename))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if m.state == stateRequire {
			b.WriteString(m.input.View())
			b.WriteString("\n\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n\n")
		} else if m.result != "" {
			b.WriteString(resultStyle.Render(m.result))
			b.WriteString("\n\n")
		}
		if m.output != "" {
			b.WriteString(helpStyle.Render(m.output))
			b.WriteString("\n\n")
		}

		if m.state == stateRequire {
			b.WriteString(helpStyle.Render("enter require • esc back"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter exports • r require • q quit"))
		}

	case stateShowExports:
		row := m.rows[m.selected]
		b.WriteString(fmt.Sprintf("Module %s (%s)\n", idStyle.Render(row.id), row.state))
		if row.filename != "" {
			b.WriteString("location: " + locationStyle.Render(row.filename) + "\n")
		}
		if row.parent != "" {
			b.WriteString("parent:   " + row.parent + "\n")
		}
		if len(row.children) > 0 {
			b.WriteString("children: " + strings.Join(row.children, ", ") + "\n")
		}
		b.WriteString("\n")
		b.WriteString(resultStyle.Render(row.exports))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter back • q quit"))
	}

	return b.String()
}

func runInteractive(rt *runtime.Runtime, entry string, console *bytes.Buffer) error {
	p := tea.NewProgram(newInteractiveModel(rt, entry, console), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
