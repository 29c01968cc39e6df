package tui

import (
	"errors"
	"strings"

	"ycmflags/internal/flags"
	"ycmflags/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var errNoResolver = errors.New("no resolver configured")

// MsgResolved carries the analysis of a resolved file.
type MsgResolved model.Analysis

// MsgError indicates an error occurred.
type MsgError error

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		return m, nil

	case MsgResolved:
		m.Loading = false
		m.Err = nil
		m.Analysis = model.Analysis(msg)
		m.SelectedIdx = 0
		m.applyFilter()
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.Input != inputNone {
			return m.updateInput(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.Filter != "" {
				m.Filter = ""
				m.applyFilter()
				return m, nil
			}
		case "up", "k":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
			}
		case "down", "j":
			if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
			}
		case "home", "g":
			m.SelectedIdx = 0
		case "end", "G":
			if len(m.FilteredIndices) > 0 {
				m.SelectedIdx = len(m.FilteredIndices) - 1
			}
		case "d":
			m.ShowDiagnostics = !m.ShowDiagnostics
		case "o":
			m.startInput(inputFile, "Source file path...")
			return m, textinput.Blink
		case "/":
			m.startInput(inputFilter, "Filter flags...")
			m.InputBuffer.SetValue(m.Filter)
			return m, textinput.Blink
		case "r":
			if m.File != "" {
				m.Resolver.Purge()
				m.Loading = true
				return m, ResolveCmd(m.Resolver, m.File)
			}
		}
	}

	return m, cmd
}

func (m AppModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Type {
	case tea.KeyEnter:
		purpose := m.Input
		m.stopInput()
		if purpose == inputFile {
			file := strings.TrimSpace(m.InputBuffer.Value())
			if file == "" {
				return m, nil
			}
			m.File = model.AbsPath(file)
			m.Loading = true
			return m, ResolveCmd(m.Resolver, m.File)
		}
		return m, nil
	case tea.KeyEsc:
		purpose := m.Input
		m.stopInput()
		if purpose == inputFilter {
			m.Filter = ""
			m.applyFilter()
		}
		return m, nil
	}
	m.InputBuffer, cmd = m.InputBuffer.Update(msg)
	if m.Input == inputFilter {
		m.Filter = m.InputBuffer.Value()
		m.applyFilter()
	}
	return m, cmd
}

// applyFilter keeps the entries whose value contains the filter text.
func (m *AppModel) applyFilter() {
	term := strings.ToLower(m.Filter)
	m.FilteredIndices = make([]int, 0, len(m.Analysis.Entries))
	for i, e := range m.Analysis.Entries {
		if term == "" || strings.Contains(strings.ToLower(e.Value), term) {
			m.FilteredIndices = append(m.FilteredIndices, i)
		}
	}

	// Bounds check
	if m.SelectedIdx >= len(m.FilteredIndices) {
		if len(m.FilteredIndices) > 0 {
			m.SelectedIdx = len(m.FilteredIndices) - 1
		} else {
			m.SelectedIdx = 0
		}
	}
}

// ResolveCmd resolves file in the background.
func ResolveCmd(resolver *flags.CachingResolver, file string) tea.Cmd {
	return func() tea.Msg {
		if resolver == nil {
			return MsgError(errNoResolver)
		}
		return MsgResolved(flags.Analyze(resolver.Resolve(file)))
	}
}
