package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ycmflags/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	adviceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	pathHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("81")). // Sky Blue/Cyan
				Bold(true)

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

func (m AppModel) View() string {
	if m.Input == inputFile {
		return fmt.Sprintf("\n  %s\n\n  %s\n\n  %s\n",
			titleStyle.Render("Resolve flags for:"),
			m.InputBuffer.View(),
			dimStyle.Render("enter: resolve • esc: cancel • ctrl+c: quit"))
	}
	if m.Loading {
		return "\n  Resolving flags... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.Err)
	}

	// Subtracting 6 for horizontal margin (borders x2 + buffer)
	// Subtracting 6 for vertical margin (title, footer, borders)
	width := m.WindowSize.Width
	height := m.WindowSize.Height

	netWidth := width - 6
	if netWidth < 20 {
		netWidth = 20
	}
	leftWidth := netWidth / 2
	rightWidth := netWidth - leftWidth

	boxHeight := height - 6
	if boxHeight < 6 {
		boxHeight = 6
	}
	interiorHeight := boxHeight - 2

	borderColor := lipgloss.Color("63")
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Height(interiorHeight)

	left := boxStyle.Width(leftWidth).Render(m.renderList(leftWidth, interiorHeight))
	right := boxStyle.Width(rightWidth).Render(m.renderDetails(rightWidth))

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m AppModel) renderHeader() string {
	mode := string(m.Analysis.Source)
	return fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("ycmflags"),
		pathHighlightStyle.Render(m.File),
		dimStyle.Render(fmt.Sprintf("[%s mode, cwd %s]", mode, m.Analysis.WorkingDir)))
}

func (m AppModel) renderFooter() string {
	if m.Input == inputFilter {
		return "Filter: " + m.InputBuffer.View()
	}
	help := "↑/↓: move • /: filter • o: open file • d: diagnostics • r: reload • q: quit"
	if m.Filter != "" {
		help = fmt.Sprintf("filter %q (esc clears) • %s", m.Filter, help)
	}
	return dimStyle.Render(help)
}

func (m AppModel) renderList(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Flags (%d)", len(m.Analysis.Entries))))
	b.WriteString("\n\n")

	// Windowing
	visibleItems := height - 2
	if visibleItems < 1 {
		visibleItems = 1
	}
	startIdx := 0
	endIdx := len(m.FilteredIndices)
	if len(m.FilteredIndices) > visibleItems {
		if m.SelectedIdx >= visibleItems/2 {
			startIdx = m.SelectedIdx - visibleItems/2
		}
		if startIdx+visibleItems > len(m.FilteredIndices) {
			startIdx = len(m.FilteredIndices) - visibleItems
		}
		endIdx = startIdx + visibleItems
	}

	if len(m.FilteredIndices) == 0 {
		b.WriteString(dimStyle.Render("  (no flags)"))
	}

	for i := startIdx; i < endIdx; i++ {
		idx := m.FilteredIndices[i]
		e := m.Analysis.Entries[idx]

		icon := model.IconFor(e.Kind)
		switch {
		case e.Missing:
			icon = model.IconMissing
		case e.IsDuplicate:
			icon = model.IconDuplicate
		case e.Rewritten:
			icon = model.IconRewritten
		}

		line := fmt.Sprintf("%3d. %s %s", idx+1, icon, e.Value)
		if width > 5 && len(line) > width-2 {
			line = line[:width-5] + "..."
		}

		style := normalStyle
		switch {
		case i == m.SelectedIdx:
			style = selectedStyle
		case e.Missing:
			style = missingStyle
		case e.IsDuplicate:
			style = adviceStyle
		case e.Kind == model.KindPathArg:
			style = dimStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m AppModel) renderDetails(width int) string {
	var b strings.Builder
	if m.ShowDiagnostics {
		b.WriteString(titleStyle.Render("Diagnostics"))
		b.WriteString("\n\n")
		if len(m.Analysis.Diagnostics) == 0 {
			b.WriteString("No problems found.\n")
		}
		for _, d := range m.Analysis.Diagnostics {
			b.WriteString(adviceStyle.Render("• " + d))
			b.WriteString("\n")
		}
		return lipgloss.NewStyle().Width(width - 2).Render(b.String())
	}

	b.WriteString(titleStyle.Render("Details"))
	b.WriteString("\n\n")
	if len(m.FilteredIndices) == 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return b.String()
	}
	e := m.Analysis.Entries[m.FilteredIndices[m.SelectedIdx]]

	fmt.Fprintf(&b, "Flag:     %s\n", pathHighlightStyle.Render(e.Value))
	fmt.Fprintf(&b, "Kind:     %s\n", e.Kind)
	if e.Original != e.Value {
		fmt.Fprintf(&b, "Original: %s\n", dimStyle.Render(e.Original))
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "Path:     %s\n", e.Path)
		status := "exists"
		if e.Missing {
			status = missingStyle.Render("missing")
		}
		fmt.Fprintf(&b, "Status:   %s\n", status)
	}
	if len(e.Diagnostics) > 0 {
		b.WriteString("\n")
		for _, d := range e.Diagnostics {
			b.WriteString(adviceStyle.Render(d))
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().Width(width - 2).Render(b.String())
}
