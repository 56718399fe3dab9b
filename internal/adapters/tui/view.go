package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/tend/internal/ui/style"
)

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.ruleList(),
		m.logPane(),
	)
}

func (m *Model) ruleList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("RULES") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Rules))
	start := min(m.ListOffset, end)

	for i := start; i < end; i++ {
		s.WriteString(m.renderRuleRow(i, m.Rules[i]) + "\n")
		if change := m.Rules[i].LastChange; change != "" {
			s.WriteString("    " + hintStyle.Render(change) + "\n")
		}
	}

	return listStyle.Render(s.String())
}

func (m *Model) renderRuleRow(index int, rule *RuleNode) string {
	icon := ruleIcon(rule)
	st := ruleStyle(rule)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if rule.Status != StatusDone && rule.Status != StatusError {
			st = selectedStyle
		}
	}

	content := fmt.Sprintf("%s %s", icon, rule.Name)
	if rule.Runs > 0 {
		content += fmt.Sprintf(" (%d)", rule.Runs)
	}
	return cursor + st.Render(content)
}

func ruleIcon(rule *RuleNode) string {
	switch rule.Status {
	case StatusRunning:
		return style.Running
	case StatusRestarting:
		return style.Restart
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	default:
		return style.Watching
	}
}

func ruleStyle(rule *RuleNode) lipgloss.Style {
	switch rule.Status {
	case StatusRunning:
		return ruleRunningStyle
	case StatusRestarting:
		return ruleRestartingStyle
	case StatusDone:
		return ruleDoneStyle
	case StatusError:
		return ruleErrorStyle
	default:
		return ruleWatchingStyle
	}
}

func (m *Model) logPane() string {
	header := titleStyle.Render("LOGS (Waiting...)")
	var content string

	if m.ActiveRuleName != "" {
		mode := " (Manual)"
		if m.FollowMode {
			mode = " (Following)"
		}
		header = titleStyle.Render("LOGS: " + m.ActiveRuleName + mode)

		if node, ok := m.RuleMap[m.ActiveRuleName]; ok {
			content = node.Term.View()
		}
	}

	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
