package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/couette/internal/automation"
	"github.com/san-kum/couette/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type state int

const (
	stateList state = iota
	stateCase
	stateOverlay
	stateHeatmap
)

type model struct {
	state  state
	cursor int
	field  int

	title string
	data  *automation.ExportData
	theme viz.Theme

	width  int
	height int
}

// NewViewer browses the cases of a finished sweep.
func NewViewer(title string, data *automation.ExportData, theme viz.Theme) tea.Model {
	return model{
		title:  title,
		data:   data,
		theme:  theme,
		width:  100,
		height: 30,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	n := m.data.Cases()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateList
		return m, tea.ClearScreen
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "left", "h":
		if m.state == stateCase && m.cursor > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.state == stateCase && m.cursor < n-1 {
			m.cursor++
		}
	case "enter":
		if n > 0 {
			m.state = stateCase
		}
		return m, tea.ClearScreen
	case "o":
		m.state = stateOverlay
		return m, tea.ClearScreen
	case "m":
		m.state = stateHeatmap
		return m, tea.ClearScreen
	case "f":
		m.field = (m.field + 1) % len(automation.FieldNames)
	}
	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateCase:
		return m.viewCase()
	case stateOverlay:
		return m.viewOverlay()
	case stateHeatmap:
		return m.viewHeatmap()
	}
	return m.viewList()
}

func (m model) fieldName() string {
	return automation.FieldNames[m.field]
}

func (m model) plotSize() (int, int) {
	w := max(m.width-16, 30)
	h := max((m.height-14)/2, 5)
	return w, h
}

func (m model) viewList() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("        " + cyan.Render(m.title) + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	if m.data.Cases() == 0 {
		b.WriteString(dim.Render("      no converged cases") + "\n")
	}
	for i, mach := range m.data.MachR {
		label := fmt.Sprintf("M_r = %-8.3f", mach)
		desc := ""
		if i < len(m.data.Tau) {
			desc = fmt.Sprintf("tau %.6f", m.data.Tau[i])
		}
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(label) + "  " + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(label) + "  " + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter view   o overlay   m heat map   q quit") + "\n")
	return b.String()
}

func (m model) viewCase() string {
	var b strings.Builder
	w, h := m.plotSize()

	b.WriteString("\n  " + cyan.Render(fmt.Sprintf("case %d/%d", m.cursor+1, m.data.Cases())))
	b.WriteString("  " + magenta.Render(fmt.Sprintf("M_r = %g", m.data.MachR[m.cursor])))
	if m.cursor < len(m.data.Tau) {
		b.WriteString("  " + dim.Render(fmt.Sprintf("tau = %.6f", m.data.Tau[m.cursor])))
	}
	b.WriteString("\n\n")
	b.WriteString(viz.PlotCase(m.data, m.cursor, w, h))
	b.WriteString("\n\n")
	b.WriteString(dim.Render("  ←→ case   o overlay   m heat map   esc back   q quit") + "\n")
	return b.String()
}

func (m model) viewOverlay() string {
	var b strings.Builder
	w, h := m.plotSize()

	b.WriteString("\n  " + cyan.Render(m.fieldName()) + dim.Render(" for every case") + "\n\n")
	plot, err := viz.PlotProfiles(m.data, m.fieldName(), w, 2*h)
	if err != nil {
		b.WriteString(dim.Render("  "+err.Error()) + "\n")
	} else {
		b.WriteString(plot)
	}
	b.WriteString("\n\n")
	b.WriteString(dim.Render("  f field   enter case   m heat map   esc back   q quit") + "\n")
	return b.String()
}

func (m model) viewHeatmap() string {
	var b strings.Builder
	_, h := m.plotSize()

	field, err := m.data.Field(m.fieldName())
	b.WriteString("\n")
	if err != nil || len(field) == 0 {
		b.WriteString(dim.Render("  nothing to shade") + "\n")
	} else {
		b.WriteString(viz.Heatmap(m.data, field, m.fieldName(), 2*h, m.theme))
	}
	b.WriteString("\n\n")
	b.WriteString(dim.Render("  f field   o overlay   esc back   q quit") + "\n")
	return b.String()
}

// Run opens the viewer full screen and blocks until the user quits.
func Run(title string, data *automation.ExportData, theme viz.Theme) error {
	p := tea.NewProgram(NewViewer(title, data, theme), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
