package phasedapp

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0AAFF"))
	subtitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4C566A")).Padding(0, 1)
	promptPanelStyle  = panelStyle.Copy().MarginTop(1)
	actionsPanelStyle = panelStyle.Copy().BorderForeground(lipgloss.Color("#7C3AED")).MarginTop(1)
	reportPanelStyle  = panelStyle.Copy().BorderForeground(lipgloss.Color("#34D399")).MarginTop(1)
	statusBarStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#312E81")).Foreground(lipgloss.Color("#E0E7FF"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Padding(0, 1).MarginTop(1)
	helpStyle         = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7C3AED")).Padding(1, 2).MarginTop(1)
	detailTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FDE047"))
	infoTextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBD5F5"))
	errorTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	disabledTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
	logSectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A5B4FC")).Bold(true)
	logTextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E7FF"))
	activeBorderColor = lipgloss.Color("#A78BFA")
)

var statusStyles = map[phaseStatus]lipgloss.Style{
	statusPending: lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
	statusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")).Bold(true),
	statusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")),
	statusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
	statusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
}

var statusIcons = map[phaseStatus]string{
	statusPending: "•",
	statusRunning: "⟳",
	statusSuccess: "✔",
	statusSkipped: "↷",
	statusFailed:  "✖",
}

var titleCase = cases.Title(language.English)

const detailLogLines = 8

func (m *model) View() string {
	sections := []string{m.renderHeader(), m.renderBody()}
	if m.actionsVisible {
		sections = append(sections, m.renderActionsPanel())
	}
	sections = append(sections, m.renderPromptPanel())
	if m.finished && m.reportText != "" {
		sections = append(sections, styleForWidth(reportPanelStyle, m.viewportWidth()).Render(m.reportText))
	}
	sections = append(sections, statusBarStyle.Render(m.statusMsg))
	if m.helpVisible {
		sections = append(sections, renderHelp())
	} else {
		sections = append(sections, footerStyle.Render("↑/↓ or j/k move • Enter actions • Tab switch focus • r restart • ? help • q quit"))
	}

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	width := m.width
	if width <= 0 {
		width = lipgloss.Width(view)
	}
	height := lipgloss.Height(view)
	if m.height > height {
		height = m.height
	}
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, view)
}

func (m *model) renderHeader() string {
	title := titleStyle.Render(m.title)
	progress := subtitleStyle.Render(fmt.Sprintf("Progress: %d/%d complete", completedCount(m.phases), len(m.order)))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", progress)
}

func (m *model) renderBody() string {
	width := m.viewportWidth()
	if width < 80 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderPhaseList(width), m.renderPhaseDetails(width))
	}
	left := max(width/3, 30)
	right := max(width-left-2, 30)
	gap := lipgloss.NewStyle().Width(2).Render(" ")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderPhaseList(left), gap, m.renderPhaseDetails(right))
}

func (m *model) renderPhaseList(width int) string {
	focused := m.focus == focusPhases
	items := make([]string, 0, len(m.order))
	for idx, id := range m.order {
		if state := m.phases[id]; state != nil {
			items = append(items, m.phaseItemView(state, idx == m.selectedPhase, focused))
		}
	}
	style := styleForWidth(panelStyle, width)
	if focused {
		style = style.Copy().BorderForeground(activeBorderColor)
	}
	return style.Render(strings.Join(items, "\n"))
}

func (m *model) phaseItemView(state *phaseState, selected, focused bool) string {
	icon := statusIcons[state.status]
	if state.status == statusRunning {
		icon = m.spinner.View()
	}
	label := fmt.Sprintf("%s %s", icon, state.meta.Title)

	style := statusStyles[state.status]
	if selected {
		style = style.Copy().Bold(true)
		if focused {
			style = style.Copy().Underline(true).Foreground(activeBorderColor)
		}
	}
	return style.Render(label)
}

func (m *model) renderPhaseDetails(width int) string {
	style := styleForWidth(panelStyle, width)
	state := m.currentPhaseState()
	if state == nil {
		return style.Render("No phases registered")
	}

	body := []string{
		detailTitleStyle.Render(state.meta.Title),
		infoTextStyle.Render(state.meta.Description),
		infoTextStyle.Render("Status: " + titleCase.String(state.status.String())),
	}
	if state.note != "" {
		body = append(body, disabledTextStyle.Render(state.note))
	}
	if state.err != nil {
		body = append(body, errorTextStyle.Render(fmt.Sprintf("Error: %v", state.err)))
	}
	if len(state.logs) > 0 {
		entries := state.logs
		if len(entries) > detailLogLines {
			entries = entries[len(entries)-detailLogLines:]
		}
		body = append(body, logSectionStyle.Render("Recent events:"))
		for _, line := range entries {
			body = append(body, logTextStyle.Render("• "+line))
		}
	}
	return style.Render(strings.Join(body, "\n"))
}

func (m *model) renderPromptPanel() string {
	style := styleForWidth(promptPanelStyle, m.viewportWidth())
	if !m.prompting || m.activePrompt == nil {
		content := "No input requested"
		if m.pipelineActive {
			content = "Pipeline running…"
		}
		return style.Render("Prompt\n" + content)
	}
	if m.focus == focusPrompt {
		style = style.Copy().BorderForeground(activeBorderColor)
	}

	def := m.activePrompt.input
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", detailTitleStyle.Render(def.ID))
	if def.Label != "" {
		fmt.Fprintf(&b, "%s\n", def.Label)
	}
	if m.activePrompt.reason != "" {
		fmt.Fprintf(&b, "%s\n", errorTextStyle.Render(m.activePrompt.reason))
	}

	if m.isSelectPrompt() {
		b.WriteString("Use ↑/↓, j/k, number keys. Enter to confirm.\n\n")
		b.WriteString(m.renderSelectOptions())
	} else {
		b.WriteString(def.ID + "=")
		b.WriteString(m.prompt.View())
	}
	return style.Render(b.String())
}

func (m *model) renderSelectOptions() string {
	options := promptOptions(m.activePrompt.input)
	if len(options) == 0 {
		return "No options available"
	}
	lines := make([]string, 0, len(options))
	for idx, opt := range options {
		cursor := " "
		if idx == m.selectIndex {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %d. %s", cursor, idx+1, opt.Label)
		if opt.Description != "" {
			line += " (" + opt.Description + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *model) renderActionsPanel() string {
	state := m.currentPhaseState()
	if state == nil {
		return ""
	}
	options := []string{
		actionLine("1", "Close", true),
		actionLine("2", "Retry from this phase", !m.pipelineActive),
		actionLine("3", "Copy error message", state.err != nil),
		actionLine("4", "Copy cleanup recipe", m.cleanupText() != ""),
	}
	content := "Actions: " + state.meta.Title + "\n" + strings.Join(options, "\n")
	return styleForWidth(actionsPanelStyle, m.viewportWidth()).Render(content)
}

func renderHelp() string {
	help := []string{
		"Key Bindings:",
		"  ↑/↓ or j/k  Move phase selection",
		"  Enter        Submit input / open phase actions",
		"  Tab          Switch focus between phases and prompt",
		"  y / n        Answer a yes/no prompt",
		"  r / Ctrl+R   Restart pipeline",
		"  Esc          Cancel prompt or hide help",
		"  ?            Toggle this help",
		"  q            Quit once finished (Ctrl+C aborts)",
	}
	return helpStyle.Render(strings.Join(help, "\n"))
}

func actionLine(key, label string, enabled bool) string {
	line := fmt.Sprintf("[%s] %s", key, label)
	if enabled {
		return infoTextStyle.Render(line)
	}
	return disabledTextStyle.Render(line + " (unavailable)")
}

func (m *model) viewportWidth() int {
	switch {
	case m.width <= 0:
		return 100
	case m.width < 40:
		return 40
	default:
		return m.width
	}
}

func styleForWidth(base lipgloss.Style, totalWidth int) lipgloss.Style {
	style := base.Copy()
	frameWidth, _ := base.GetFrameSize()
	return style.Width(max(totalWidth-frameWidth, 0))
}
