package tui

import (
	"ycmflags/internal/flags"
	"ycmflags/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// inputPurpose says what the text input is currently collecting.
type inputPurpose int

const (
	inputNone inputPurpose = iota
	inputFile
	inputFilter
)

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Resolver *flags.CachingResolver
	File     string
	Analysis model.Analysis
	Loading  bool
	Err      error

	// UI State
	SelectedIdx int
	WindowSize  tea.WindowSizeMsg

	// View Modes
	ShowDiagnostics bool

	// Input State
	Input           inputPurpose
	InputBuffer     textinput.Model
	Filter          string
	FilteredIndices []int // Indices of Analysis.Entries to show
}

// InitialModel returns the initial state. With an empty file the model
// starts by asking for one.
func InitialModel(resolver *flags.CachingResolver, file string) AppModel {
	ti := textinput.New()
	ti.CharLimit = 4096
	ti.Width = 60

	m := AppModel{
		Resolver:    resolver,
		File:        file,
		InputBuffer: ti,
	}
	if file == "" {
		m.startInput(inputFile, "Source file path...")
	} else {
		m.Loading = true
	}
	return m
}

// Init starts resolving the initial file, if any.
func (m AppModel) Init() tea.Cmd {
	if m.File == "" {
		return textinput.Blink
	}
	return ResolveCmd(m.Resolver, m.File)
}

func (m *AppModel) startInput(p inputPurpose, placeholder string) {
	m.Input = p
	m.InputBuffer.Placeholder = placeholder
	m.InputBuffer.SetValue("")
	m.InputBuffer.Focus()
}

func (m *AppModel) stopInput() {
	m.Input = inputNone
	m.InputBuffer.Blur()
}
